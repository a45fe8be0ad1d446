package collect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaczkows/fb4rasp/pkg/sshutil"
	sshtest "github.com/zaczkows/fb4rasp/pkg/sshutil/testing"
)

type countingDialer struct {
	dials int
	conns []*sshtest.FakeConn
	err   error
}

func (d *countingDialer) dial(host string) (sshutil.Conn, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := sshtest.NewFakeConn(host)
	d.conns = append(d.conns, c)
	return c, nil
}

func TestPool_ReusesLiveConnection(t *testing.T) {
	d := &countingDialer{}
	pool := NewPool(d.dial)

	c1, err := pool.Get("router")
	require.NoError(t, err)
	c2, err := pool.Get("router")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, d.dials)
	assert.Equal(t, 1, pool.Size())
}

func TestPool_RedialsDeadConnection(t *testing.T) {
	d := &countingDialer{}
	pool := NewPool(d.dial)

	_, err := pool.Get("router")
	require.NoError(t, err)
	d.conns[0].Kill()

	c, err := pool.Get("router")
	require.NoError(t, err)

	assert.Equal(t, 2, d.dials)
	assert.True(t, d.conns[0].IsClosed())
	assert.Same(t, d.conns[1], c)
}

func TestPool_DialError(t *testing.T) {
	d := &countingDialer{err: errors.New("refused")}
	pool := NewPool(d.dial)

	_, err := pool.Get("router")
	assert.EqualError(t, err, "refused")
	assert.Zero(t, pool.Size())
}

func TestPool_DropAndClose(t *testing.T) {
	d := &countingDialer{}
	pool := NewPool(d.dial)

	_, _ = pool.Get("a")
	_, _ = pool.Get("b")
	require.Equal(t, 2, pool.Size())

	pool.Drop("a")
	assert.True(t, d.conns[0].IsClosed())
	assert.Equal(t, 1, pool.Size())

	pool.Drop("missing")

	pool.Close()
	assert.True(t, d.conns[1].IsClosed())
	assert.Zero(t, pool.Size())
}
