package collect

import (
	"context"
	"sync"
)

// Producer is a long running loop feeding the engine.
type Producer interface {
	Run(ctx context.Context) error
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) error

func (f ProducerFunc) Run(ctx context.Context) error { return f(ctx) }

// RunAll runs every producer in its own goroutine and waits for all of
// them. The first error cancels the others and is returned.
func RunAll(ctx context.Context, producers ...Producer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, p := range producers {
		wg.Add(1)
		go func(p Producer) {
			defer wg.Done()
			if err := p.Run(ctx); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(p)
	}
	wg.Wait()
	return firstErr
}
