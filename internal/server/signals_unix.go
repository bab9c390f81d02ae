//go:build !windows

package server

import (
	"os"
	"syscall"
)

// SIGUSR2 is what nodemon-style reloaders send in development.
func defaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGUSR2}
}
