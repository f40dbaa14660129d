// Package register registers every indicator backend.
package register

import (
	// for backends.
	_ "go.viam.com/batterybar/components/indicator/console"
	_ "go.viam.com/batterybar/components/indicator/fake"
	_ "go.viam.com/batterybar/components/indicator/gpiochip"
	_ "go.viam.com/batterybar/components/indicator/periphio"
)
