// Package utils contains small helpers shared by batterybar packages.
package utils

// Guard runs a cleanup function when a constructor bails out before handing
// its resource to the caller. Usage:
//
//	guard := NewGuard(func() { dev.Release(ctx) })
//	defer guard.OnFail()
//	if err := step(); err != nil { return nil, err }
//	guard.Success()
//	return thing, nil
type Guard struct {
	cleanup func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless
// Success was called first.
func NewGuard(onFailCleanup func()) *Guard {
	return &Guard{cleanup: onFailCleanup}
}

// OnFail runs the cleanup if Success has not been called. It is meant to be
// deferred.
func (guard *Guard) OnFail() {
	if guard.success || guard.cleanup == nil {
		return
	}
	guard.cleanup()
}

// Success declares the function succeeded and the "failure" cleanup code does not need to be
// executed.
func (guard *Guard) Success() {
	guard.success = true
}
