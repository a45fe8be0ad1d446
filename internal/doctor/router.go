package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/zaczkows/fb4rasp/internal/collect"
	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/errors"
)

// RouterCheck reads the router counters once over SSH.
type RouterCheck struct {
	Router config.RouterConfig
	Dial   collect.DialFunc
}

func (c *RouterCheck) Name() string     { return "router" }
func (c *RouterCheck) Category() string { return "ROUTER" }

func (c *RouterCheck) Run(context.Context) CheckResult {
	if !c.Router.Enable {
		return pass(c, "Router polling is disabled")
	}

	pool := collect.NewPool(c.Dial)
	defer pool.Close()

	p := collect.NewRouterPoller(pool, nil, collect.RouterOptions{
		Host:      c.Router.Address,
		Interface: c.Router.Interface,
	})
	s, err := p.Poll()
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot read %s counters on %s: %v", c.Router.Interface, c.Router.Address, err),
			Suggestion: suggestion(err, "Check router.address and router.interface"),
		}
	}
	return pass(c, fmt.Sprintf("%s on %s: tx %s, rx %s", c.Router.Interface, c.Router.Address,
		humanize.IBytes(uint64(s.TxBytes)), humanize.IBytes(uint64(s.RxBytes))))
}

// suggestion prefers the hint carried by a structured error.
func suggestion(err error, fallback string) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Suggestion != "" {
		return e.Suggestion
	}
	return fallback
}
