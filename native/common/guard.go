package common

import (
	"errors"
	"fmt"
)

// ErrModulePaused is returned for calls routed to a module the operator has
// switched off.
var ErrModulePaused = errors.New("module paused")

// PauseView reports the operator pause switch for a native module.
type PauseView interface {
	IsPaused(module string) bool
}

// RequireActive fails when module is paused. A nil view pauses nothing.
func RequireActive(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return fmt.Errorf("%w: %s", ErrModulePaused, module)
	}
	return nil
}
