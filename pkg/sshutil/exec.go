package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"

	"github.com/zaczkows/fb4rasp/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Conn is the part of an SSH connection the pollers need.
type Conn interface {
	// Exec runs cmd and returns its stdout. A non-zero exit status is an
	// error carrying the trimmed stderr.
	Exec(cmd string) ([]byte, error)
	GetHost() string
	Alive() bool
	Close() error
}

var _ Conn = (*Client)(nil)

// Exec runs cmd in a fresh session.
func (c *Client) Exec(cmd string) ([]byte, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to open SSH session on "+c.Host,
			"The connection was probably dropped; it will be re-dialed.")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			return nil, errors.New(errors.ErrExec,
				fmt.Sprintf("%q exited with %d on %s: %s", cmd, exitErr.ExitStatus(), c.Host, bytes.TrimSpace(stderr.Bytes())),
				"")
		}
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to run %q on %s", cmd, c.Host), "")
	}
	return stdout.Bytes(), nil
}
