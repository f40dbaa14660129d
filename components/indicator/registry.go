package indicator

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/batterybar/logging"
)

// A Constructor builds a Device for a backend.
type Constructor func(conf BackendConfig, logger logging.Logger) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// RegisterBackend makes a backend available by name. It is meant to be called
// from init functions and panics if the name is already taken.
func RegisterBackend(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[name]; ok {
		panic(errors.Errorf("trying to register two indicator backends with the same name: %q", name))
	}
	if constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for indicator backend %q", name))
	}
	registry[name] = constructor
}

// NewBackend constructs the named backend.
func NewBackend(name string, conf BackendConfig, logger logging.Logger) (Device, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown indicator backend %q (known: %v)", name, Backends())
	}
	dev, err := constructor(conf, logger.Sublogger(name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create indicator backend %q", name)
	}
	return dev, nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
