// Package testing provides an in-memory sshutil.Conn for poller tests.
package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zaczkows/fb4rasp/pkg/sshutil"
)

// FakeConn answers "cat <path>" from Files. Anything else fails.
type FakeConn struct {
	mu     sync.Mutex
	Host   string
	Files  map[string]string
	Dead   bool
	Closed bool
	// Err, when set, is returned by every Exec.
	Err   error
	Calls []string
}

var _ sshutil.Conn = (*FakeConn)(nil)

// NewFakeConn returns a live connection to host with no files.
func NewFakeConn(host string) *FakeConn {
	return &FakeConn{Host: host, Files: make(map[string]string)}
}

// SetFile replaces the content of path.
func (f *FakeConn) SetFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Files[path] = content
}

// Kill makes the connection report dead.
func (f *FakeConn) Kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dead = true
}

func (f *FakeConn) Exec(cmd string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmd)
	if f.Err != nil {
		return nil, f.Err
	}
	path, ok := strings.CutPrefix(cmd, "cat ")
	if !ok {
		return nil, fmt.Errorf("unsupported command %q", cmd)
	}
	content, ok := f.Files[path]
	if !ok {
		return nil, fmt.Errorf("cat: %s: No such file or directory", path)
	}
	return []byte(content), nil
}

func (f *FakeConn) GetHost() string { return f.Host }

func (f *FakeConn) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Dead && !f.Closed
}

func (f *FakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeConn) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}
