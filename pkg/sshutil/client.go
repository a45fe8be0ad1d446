// Package sshutil dials SSH hosts the way the ssh command line would:
// ~/.ssh/config aliases, the agent, default keys and known_hosts.
package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/zaczkows/fb4rasp/internal/errors"
	"github.com/zaczkows/fb4rasp/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Environment overrides for the router login, useful on a board where the
// service runs as a different user than the one owning the key.
const (
	UserEnv = "FB4RASP_SSH_USER"
	KeyEnv  = "FB4RASP_SSH_KEY"
)

// DefaultTimeout bounds the TCP connect and the handshake.
const DefaultTimeout = 10 * time.Second

// Options tune a single Dial.
type Options struct {
	Timeout time.Duration
	// InsecureHostKey skips known_hosts verification. Routers that
	// regenerate their key on every firmware flash need it.
	InsecureHostKey bool
	Logger          logger.Logger
}

// Client is an established connection plus the names it was reached by.
type Client struct {
	*ssh.Client
	Host    string // alias or address as configured
	Address string // resolved host:port
}

// Dial connects to host, which may be an ssh config alias, a hostname,
// user@hostname or hostname:port.
func Dial(host string, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	target := resolveTarget(host, ConfigPath(), opts.Logger)

	cfg, err := clientConfig(target, opts)
	if err != nil {
		var fbErr *errors.Error
		if stderrors.As(err, &fbErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't prepare SSH for '%s'", host),
			"Check your keys are loaded: ssh-add -l")
	}

	address := target.address()
	conn, err := net.DialTimeout("tcp", address, opts.Timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			dialHint(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, cfg)
	if err != nil {
		conn.Close()
		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' failed", host),
			handshakeHint(err, target.encryptedKeys))
	}

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    host,
		Address: address,
	}, nil
}

// Close closes the connection. Safe on a zero Client.
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the alias used to connect.
func (c *Client) GetHost() string {
	return c.Host
}

// Alive sends a keepalive request and reports whether the transport answered.
func (c *Client) Alive() bool {
	if c == nil || c.Client == nil {
		return false
	}
	_, _, err := c.Client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

// ConfigPath returns the path of the user's ssh config.
func ConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

type target struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string
}

func (t *target) address() string {
	return net.JoinHostPort(t.hostname, t.port)
}

var matchWarnOnce sync.Once

// resolveTarget splits user@host:port and overlays whatever the ssh config
// knows about host.
func resolveTarget(host, configPath string, log logger.Logger) *target {
	t := &target{port: "22", user: currentUser()}

	explicitUser := false
	if at := strings.Index(host, "@"); at != -1 {
		t.user = host[:at]
		host = host[at+1:]
		explicitUser = true
	}
	if !explicitUser {
		if u := os.Getenv(UserEnv); u != "" {
			t.user = u
		}
	}
	if colon := strings.LastIndex(host, ":"); colon != -1 && isDigits(host[colon+1:]) {
		t.port = host[colon+1:]
		host = host[:colon]
	}
	t.hostname = host

	content, matchLine, err := readConfigUntilMatch(configPath)
	if err != nil {
		return t
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return t
	}

	found := false
	set := func(key string, dst *string, conv func(string) string) {
		if v, _ := cfg.Get(host, key); v != "" {
			*dst = conv(v)
			found = true
		}
	}
	same := func(s string) string { return s }
	set("HostName", &t.hostname, same)
	set("Port", &t.port, same)
	if !explicitUser {
		set("User", &t.user, same)
	}
	set("IdentityFile", &t.identityFile, expandPath)

	if matchLine > 0 && !found {
		matchWarnOnce.Do(func() {
			log.Warn("host %q not found before the Match block at line %d of %s", host, matchLine, configPath)
		})
	}
	return t
}

// clientConfig collects auth methods in ssh's order: agent, override key,
// configured identity, default keys.
func clientConfig(t *target, opts Options) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod

	tryKey := func(path string) {
		m, err := keyFileAuth(path)
		if err != nil {
			var enc *EncryptedKeyError
			if stderrors.As(err, &enc) {
				t.encryptedKeys = append(t.encryptedKeys, path)
			}
			return
		}
		methods = append(methods, m)
	}

	if m := agentAuth(); m != nil {
		methods = append(methods, m)
	}
	if k := os.Getenv(KeyEnv); k != "" {
		tryKey(k)
	}
	if t.identityFile != "" {
		tryKey(t.identityFile)
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		p := filepath.Join(homeDir(), ".ssh", name)
		if p != t.identityFile {
			tryKey(p)
		}
	}

	if len(methods) == 0 {
		if len(t.encryptedKeys) > 0 {
			return nil, errors.New(errors.ErrSSH,
				"Only passphrase protected keys found: "+strings.Join(t.encryptedKeys, ", "),
				addKeysHint(t.encryptedKeys))
		}
		return nil, errors.New(errors.ErrSSH, "No SSH auth methods available",
			"Load a key into the agent or set "+KeyEnv)
	}

	hostKeys := ssh.InsecureIgnoreHostKey() //nolint:gosec // opted out in config
	if !opts.InsecureHostKey {
		var err error
		hostKeys, err = knownHostsCallback(filepath.Join(homeDir(), ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            t.user,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         opts.Timeout,
	}, nil
}

var (
	agentOnce   sync.Once
	agentConn   net.Conn
	agentClient agent.ExtendedAgent
)

// agentAuth returns nil when there is no agent or it holds no keys; an empty
// agent placed first makes some servers give up early.
func agentAuth() ssh.AuthMethod {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil
	}
	agentOnce.Do(func() {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}
	if signers, err := agentClient.Signers(); err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent releases the shared agent socket.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

func keyFileAuth(path string) (ssh.AuthMethod, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || bytes.Contains(raw, []byte("ENCRYPTED")) {
			return nil, &EncryptedKeyError{Path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

// EncryptedKeyError marks a key that needs a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is passphrase protected", e.Path)
}

// HostKeyMismatchError is returned by the known_hosts callback when the
// server key differs from the recorded one.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion tells the user how to refresh known_hosts.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	known := make([]string, 0, len(e.Want))
	for _, k := range e.Want {
		known = append(known, k.Key.Type())
	}
	if len(known) == 0 {
		known = append(known, "unknown")
	}
	return fmt.Sprintf("known_hosts has %s but the server sent %s.\n"+
		"  Remove the old entry: ssh-keygen -R %s\n"+
		"  Or set router.insecure_host_key: true if the router rotates keys on reboot.",
		strings.Join(known, ", "), e.ReceivedType, host)
}

func knownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return nil, err
		}
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := cb(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   path,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}

// readConfigUntilMatch returns the config text before the first Match
// directive, which ssh_config cannot parse, and the 1-based line of that
// directive (0 if none).
func readConfigUntilMatch(path string) ([]byte, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return raw, 0, nil
}

var dialHints = []struct {
	needle, hint string
}{
	{"connection refused", "Is sshd running on the router? Try: ssh <host>"},
	{"no route to host", "No route to the router. Check the board's network."},
	{"network is unreachable", "No route to the router. Check the board's network."},
	{"timeout", "Connection timed out. The host may be down or firewalled."},
}

func dialHint(err error) string {
	msg := err.Error()
	for _, h := range dialHints {
		if strings.Contains(msg, h.needle) {
			return h.hint
		}
	}
	return "Make sure the host is reachable: ping <host>"
}

func handshakeHint(err error, encrypted []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encrypted) > 0 {
			return addKeysHint(encrypted)
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Connect once by hand: ssh <host>"
	}
	return "SSH setup failed. Try: ssh -v <host>"
}

func addKeysHint(keys []string) string {
	var sb strings.Builder
	sb.WriteString("Add the key(s) to the agent:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "  ssh-add %s\n", k)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "root"
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
