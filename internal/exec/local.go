// Package exec starts local commands on behalf of rule actions.
package exec

import (
	"os/exec"
	"strings"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

// Runner starts a command without waiting for it to finish.
type Runner interface {
	Start(argv []string) error
}

// LocalRunner starts commands on this machine. The exit status is logged
// from a background goroutine.
type LocalRunner struct {
	Log logger.Logger
}

// Start launches argv[0] with the remaining arguments.
func (r LocalRunner) Start(argv []string) error {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return errors.New(errors.ErrExec,
			"No command to run",
			"Set a command, for example [poweroff].")
	}

	log := r.Log
	if log == nil {
		log = logger.Noop()
	}

	command := exec.Command(argv[0], argv[1:]...)
	if err := command.Start(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't run '"+strings.Join(argv, " ")+"'",
			"Make sure the command exists and is executable.")
	}

	go func() {
		if err := command.Wait(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				log.Warn("%s exited with code %d", argv[0], exitErr.ExitCode())
				return
			}
			log.Warn("%s failed: %v", argv[0], err)
			return
		}
		log.Debug("%s finished", argv[0])
	}()
	return nil
}

// RecordingRunner records commands instead of running them.
type RecordingRunner struct {
	Calls [][]string
	Err   error
}

// Start records argv and returns r.Err.
func (r *RecordingRunner) Start(argv []string) error {
	r.Calls = append(r.Calls, append([]string(nil), argv...))
	return r.Err
}
