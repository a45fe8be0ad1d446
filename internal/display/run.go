// Package display renders the dashboard: a bubbletea program on a
// terminal, or a log line per redraw when there is none.
package display

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

// Interactive reports whether stdout is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run shows the dashboard until ctx is cancelled or the user quits. When
// headless is set or stdout is not a terminal it runs RunHeadless instead.
func Run(ctx context.Context, eng Engine, opts Options, headless bool, log logger.Logger) error {
	if headless || !Interactive() {
		return RunHeadless(ctx, eng, opts, log)
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	p := tea.NewProgram(NewModel(eng, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return errors.WrapWithCode(err, errors.ErrEngine, "Dashboard failed", "Try --headless")
	}
	return nil
}

// RunHeadless performs the same queries as the dashboard every Draw period
// and logs a summary. Mode switches are logged as they arrive.
func RunHeadless(ctx context.Context, eng Engine, opts Options, log logger.Logger) error {
	if log == nil {
		log = logger.Noop()
	}
	if opts.Draw <= 0 {
		opts.Draw = time.Second
	}
	ticker := time.NewTicker(opts.Draw)
	defer ticker.Stop()

	modes := opts.Modes
	for {
		select {
		case <-ctx.Done():
			return nil
		case mode, ok := <-modes:
			if !ok {
				modes = nil
				continue
			}
			log.Info("mode: %s", mode)
			continue
		case <-ticker.C:
		}

		qctx, cancel := context.WithTimeout(ctx, queryTimeout)
		f, err := Fetch(qctx, eng, opts.NetRefresh)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Info("%s", f.Summary())
	}
}
