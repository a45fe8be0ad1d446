package touch

import (
	"context"
	"sync"
	"time"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

// Sensor reads the current touch state.
type Sensor interface {
	Status() (Status, error)
}

// Sink receives touch events. The engine handle satisfies it.
type Sink interface {
	PushTouch(Status) error
}

// DefaultInterval is how often the sensor is read.
const DefaultInterval = 100 * time.Millisecond

// Poller reads a Sensor on a fixed interval and forwards every read that
// has at least one pin touched.
type Poller struct {
	sensor   Sensor
	sink     Sink
	interval time.Duration
	log      logger.Logger
}

// NewPoller creates a poller. A non-positive interval uses DefaultInterval.
func NewPoller(sensor Sensor, sink Sink, interval time.Duration, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Poller{sensor: sensor, sink: sink, interval: interval, log: log}
}

// Run polls until ctx is cancelled or the sink stops accepting events.
// Read errors are logged and skipped.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := p.poll(); err != nil {
			return err
		}
	}
}

func (p *Poller) poll() error {
	status, err := p.sensor.Status()
	if err != nil {
		p.log.Warn("sensor read failed: %v", err)
		return nil
	}
	if !status.WasTouched() {
		return nil
	}
	p.log.Debug("touched pins: %s", status)
	if err := p.sink.PushTouch(status); err != nil {
		return errors.WrapWithCode(err, errors.ErrSensor, "Cannot deliver touch event", "")
	}
	return nil
}

// KeySensor is an emulated sensor driven by the keyboard. Each Submit
// queues one status that is returned by exactly one Status call.
type KeySensor struct {
	mu      sync.Mutex
	pending []Status
}

// NewKeySensor creates an empty emulated sensor.
func NewKeySensor() *KeySensor {
	return &KeySensor{}
}

// Submit queues a touch status to be reported.
func (k *KeySensor) Submit(s Status) {
	if !s.WasTouched() {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending = append(k.pending, s)
}

// Status returns the oldest queued status, or an empty one.
func (k *KeySensor) Status() (Status, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.pending) == 0 {
		return 0, nil
	}
	s := k.pending[0]
	k.pending = k.pending[1:]
	return s, nil
}
