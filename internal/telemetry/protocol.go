package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SysInfoPath is the WebSocket endpoint served by the agent.
const SysInfoPath = "/ws/sysinfo"

const (
	refreshPrefix = "refresh"
	refreshSuffix = "ms"
)

// ErrNotRefresh is returned by ParseRefreshRequest for text that is not a
// refresh request at all.
var ErrNotRefresh = errors.New("not a refresh request")

// RefreshRequest is the text frame asking an agent to stream snapshots
// every d, e.g. "refresh 1000ms".
func RefreshRequest(d time.Duration) string {
	return fmt.Sprintf("%s %d%s", refreshPrefix, d.Milliseconds(), refreshSuffix)
}

// ParseRefreshRequest parses "refresh <n>ms". Surrounding whitespace and
// the space before the number are optional. n must be positive.
func ParseRefreshRequest(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, refreshPrefix) || !strings.HasSuffix(text, refreshSuffix) ||
		len(text) < len(refreshPrefix)+len(refreshSuffix) {
		return 0, ErrNotRefresh
	}
	num := strings.TrimSpace(text[len(refreshPrefix) : len(text)-len(refreshSuffix)])
	ms, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid refresh interval %q: %w", num, err)
	}
	if ms == 0 {
		return 0, errors.New("refresh interval must be positive")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
