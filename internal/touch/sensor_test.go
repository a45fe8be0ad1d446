package touch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fberrors "github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

type scriptedSensor struct {
	mu    sync.Mutex
	reads []Status
	errs  []error
}

func (s *scriptedSensor) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	if len(s.reads) == 0 {
		return 0, nil
	}
	r := s.reads[0]
	s.reads = s.reads[1:]
	return r, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []Status
	err    error
}

func (r *recordingSink) PushTouch(s Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, s)
	return nil
}

func (r *recordingSink) got() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.events...)
}

func TestPoller_ForwardsOnlyTouchedReads(t *testing.T) {
	sensor := &scriptedSensor{reads: []Status{0, FromPins(2), 0, FromPins(3, 4)}}
	sink := &recordingSink{}
	p := NewPoller(sensor, sink, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.got()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []Status{FromPins(2), FromPins(3, 4)}, sink.got())
}

func TestPoller_LogsSensorErrors(t *testing.T) {
	sensor := &scriptedSensor{errs: []error{errors.New("i2c timeout")}, reads: []Status{FromPins(1)}}
	sink := &recordingSink{}
	log := logger.NewBufferLogger()
	p := NewPoller(sensor, sink, time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, time.Millisecond)
	assert.True(t, log.Contains("warn", "i2c timeout"))
}

func TestPoller_StopsWhenSinkRejects(t *testing.T) {
	sensor := &scriptedSensor{reads: []Status{FromPins(1)}}
	sink := &recordingSink{err: errors.New("stopped")}
	p := NewPoller(sensor, sink, time.Millisecond, nil)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, fberrors.IsCode(err, fberrors.ErrSensor))
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&scriptedSensor{}, &recordingSink{}, 0, nil)
	assert.Equal(t, DefaultInterval, p.interval)
}

func TestKeySensor(t *testing.T) {
	k := NewKeySensor()

	s, err := k.Status()
	require.NoError(t, err)
	assert.False(t, s.WasTouched())

	k.Submit(0)
	k.Submit(FromPins(2))
	k.Submit(FromPins(5, 6))

	s, _ = k.Status()
	assert.Equal(t, FromPins(2), s)
	s, _ = k.Status()
	assert.Equal(t, FromPins(5, 6), s)
	s, _ = k.Status()
	assert.Equal(t, Status(0), s)
}
