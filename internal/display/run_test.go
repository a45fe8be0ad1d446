package display

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/logger"
)

func TestRunHeadless_LogsSummaries(t *testing.T) {
	log := logger.NewBufferLogger()
	modes := make(chan string, 1)
	modes <- config.ModeNetwork

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunHeadless(ctx, sampleEngine(), Options{Draw: 5 * time.Millisecond, Modes: modes}, log)
	}()

	require.Eventually(t, func() bool { return log.Contains("info", "localhost cpu 42%") }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, log.Contains("info", "mode: network"))
}

func TestRunHeadless_EngineError(t *testing.T) {
	err := RunHeadless(context.Background(), &fakeEngine{err: errEngine}, Options{Draw: time.Millisecond}, nil)
	assert.ErrorIs(t, err, errEngine)
}

func TestRun_HeadlessFlag(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, Run(ctx, sampleEngine(), Options{}, true, nil))
}
