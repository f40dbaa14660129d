// Package testutils holds helpers shared by batterybar tests.
package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain runs the package's tests and fails the run if any goroutine
// is still alive afterwards. Extra options are passed to goleak.
func VerifyTestMain(m goleak.TestingM, opts ...goleak.Option) {
	opts = append(opts,
		// opencensus starts this at init when it is linked in
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
	goleak.VerifyTestMain(m, opts...)
}
