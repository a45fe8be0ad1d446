package collect

import (
	"sync"
	"time"

	"github.com/zaczkows/fb4rasp/pkg/sshutil"
)

// DialFunc opens a connection to host.
type DialFunc func(host string) (sshutil.Conn, error)

// SSHDialer dials with sshutil.Dial.
func SSHDialer(opts sshutil.Options) DialFunc {
	return func(host string) (sshutil.Conn, error) {
		c, err := sshutil.Dial(host, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Pool keeps one SSH connection per host between polls so each tick costs
// a session instead of a full handshake.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*poolEntry
	dial  DialFunc
}

type poolEntry struct {
	conn     sshutil.Conn
	lastUsed time.Time
}

// NewPool creates an empty pool.
func NewPool(dial DialFunc) *Pool {
	return &Pool{
		conns: make(map[string]*poolEntry),
		dial:  dial,
	}
}

// Get returns the cached connection for host if it still answers a
// keepalive, otherwise dials a new one.
func (p *Pool) Get(host string) (sshutil.Conn, error) {
	p.mu.Lock()
	entry, ok := p.conns[host]
	p.mu.Unlock()

	if ok {
		if entry.conn.Alive() {
			p.mu.Lock()
			entry.lastUsed = time.Now()
			p.mu.Unlock()
			return entry.conn, nil
		}
		p.Drop(host)
	}

	conn, err := p.dial(host)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.conns[host] = &poolEntry{conn: conn, lastUsed: time.Now()}
	p.mu.Unlock()
	return conn, nil
}

// Drop closes and forgets the connection for host.
func (p *Pool) Drop(host string) {
	p.mu.Lock()
	entry, ok := p.conns[host]
	delete(p.conns, host)
	p.mu.Unlock()

	if ok {
		entry.conn.Close()
	}
}

// Close closes every pooled connection.
func (p *Pool) Close() {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*poolEntry)
	p.mu.Unlock()

	for _, e := range conns {
		e.conn.Close()
	}
}

// Size returns the number of pooled connections.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
