package rules

import (
	"github.com/zaczkows/fb4rasp/internal/exec"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"github.com/zaczkows/fb4rasp/internal/params"
)

// Action mutates parameters or triggers a side effect. It reports whether
// it executed. Actions run on the engine goroutine and must not block.
type Action interface {
	Apply(*params.Parameters) bool
}

// ActionFunc adapts a function to an Action.
type ActionFunc func(*params.Parameters) bool

// Apply implements Action.
func (f ActionFunc) Apply(p *params.Parameters) bool { return f(p) }

// ToggleLayout flips the main layout between vertical and horizontal.
type ToggleLayout struct{}

// Apply implements Action.
func (ToggleLayout) Apply(p *params.Parameters) bool {
	p.Options.MainLayout = p.Options.MainLayout.Toggle()
	return true
}

// Shutdown starts the power-off command.
type Shutdown struct {
	Command []string
	Runner  exec.Runner
	Log     logger.Logger
}

// Apply implements Action.
func (s Shutdown) Apply(*params.Parameters) bool {
	log := s.Log
	if log == nil {
		log = logger.Noop()
	}
	runner := s.Runner
	if runner == nil {
		runner = exec.LocalRunner{Log: log}
	}
	cmd := s.Command
	if len(cmd) == 0 {
		cmd = []string{"poweroff"}
	}

	log.Warn("shutting down: %v", cmd)
	if err := runner.Start(cmd); err != nil {
		log.Error("shutdown failed: %v", err)
		return false
	}
	return true
}

// SwitchMode asks the render loop to show another screen. The send never
// blocks; a busy or missing receiver drops the request.
type SwitchMode struct {
	Modes chan<- string
	Mode  string
}

// Apply implements Action.
func (m SwitchMode) Apply(*params.Parameters) bool {
	if m.Modes == nil {
		return false
	}
	select {
	case m.Modes <- m.Mode:
		return true
	default:
		return false
	}
}
