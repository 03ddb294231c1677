package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/melih-ucgun/brewstrap/internal/config"
	"github.com/melih-ucgun/brewstrap/internal/core"
	"github.com/melih-ucgun/brewstrap/internal/process"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 15 * time.Second

// SSHLauncher starts commands on a remote host, one SSH session per command.
// Stdout and stderr of the session are captured the same way local pipes are.
type SSHLauncher struct {
	client *ssh.Client
	host   config.Host
}

var _ process.Launcher = (*SSHLauncher)(nil)

// RenderHost expands templates in the host fields, so that secrets can come
// from the environment or a .env file.
func RenderHost(h config.Host, data interface{}) (config.Host, error) {
	fields := []*string{&h.Address, &h.User, &h.KeyPath, &h.Password, &h.KnownHosts}
	for _, f := range fields {
		out, err := core.ExecuteTemplate(*f, data)
		if err != nil {
			return h, fmt.Errorf("host %s: %w", h.Name, err)
		}
		*f = out
	}
	return h, nil
}

// Dial opens an SSH connection to h, verifying the server against
// known_hosts.
func Dial(ctx context.Context, h config.Host) (*SSHLauncher, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home directory not found: %w", err)
	}

	knownHostsPath := h.KnownHosts
	if knownHostsPath == "" {
		knownHostsPath = filepath.Join(homeDir, ".ssh", "known_hosts")
	}
	hostKeyCallback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("could not load known_hosts (%s): %w. Connect once with ssh to record the host key", knownHostsPath, err)
	}

	auth, err := authMethods(h, homeDir)
	if err != nil {
		return nil, err
	}

	user := h.User
	if user == "" {
		user = os.Getenv("USER")
	}
	clientConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}

	port := h.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(h.Address, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ssh connection to %s failed: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}

	return &SSHLauncher{client: ssh.NewClient(c, chans, reqs), host: h}, nil
}

func authMethods(h config.Host, homeDir string) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	keyPaths := []string{h.KeyPath}
	if h.KeyPath == "" {
		keyPaths = []string{
			filepath.Join(homeDir, ".ssh", "id_ed25519"),
			filepath.Join(homeDir, ".ssh", "id_rsa"),
		}
	}
	for _, p := range keyPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			if h.KeyPath != "" {
				return nil, fmt.Errorf("could not read ssh key: %w", err)
			}
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			if h.KeyPath == "" {
				// passphrase protected default keys are left to the password
				continue
			}
			return nil, fmt.Errorf("could not parse ssh key %s: %w", p, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if h.Password != "" {
		methods = append(methods, ssh.Password(h.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("host %s: no ssh key or password available", h.Name)
	}
	return methods, nil
}

// Launch starts cmd in a new session. A program missing on the remote side
// is reported by the remote shell (exit 127), not as a spawn failure.
func (l *SSHLauncher) Launch(ctx context.Context, cmd process.Command) (process.Handle, error) {
	line := RemoteCommandLine(cmd)

	session, err := l.client.NewSession()
	if err != nil {
		return nil, &process.SpawnError{Command: line, Err: err}
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, &process.SpawnError{Command: line, Err: err}
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, &process.SpawnError{Command: line, Err: err}
	}
	if err := session.Start(line); err != nil {
		session.Close()
		return nil, &process.SpawnError{Command: line, Err: err}
	}

	h := &sshHandle{
		session: session,
		line:    line,
		stdout:  stdout,
		stderr:  stderr,
		done:    make(chan struct{}),
	}
	go h.watch(ctx)
	return h, nil
}

// Close closes the SSH connection.
func (l *SSHLauncher) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

type sshHandle struct {
	session *ssh.Session
	line    string
	stdout  io.Reader
	stderr  io.Reader

	done     chan struct{}
	doneOnce sync.Once
}

func (h *sshHandle) Stdout() io.Reader { return h.stdout }
func (h *sshHandle) Stderr() io.Reader { return h.stderr }

// watch closes the session when ctx is cancelled, which ends both streams.
func (h *sshHandle) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = h.session.Signal(ssh.SIGKILL)
		_ = h.session.Close()
	case <-h.done:
	}
}

func (h *sshHandle) Terminate() (int, error) {
	defer h.doneOnce.Do(func() { close(h.done) })

	// Servers that do not support signals ignore this; an exited command
	// has closed the channel already.
	_ = h.session.Signal(ssh.SIGKILL)

	err := h.session.Wait()
	_ = h.session.Close()
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) || errors.Is(err, io.EOF) {
		return -1, nil
	}
	return -1, &process.TerminationError{Command: h.line, Err: err}
}

// RemoteCommandLine renders cmd for the remote login shell, including its
// environment and working directory.
func RemoteCommandLine(cmd process.Command) string {
	var sb strings.Builder
	if dir := cmd.Dir(); dir != "" {
		sb.WriteString("cd " + process.Quote(dir) + " && ")
	}
	if env := cmd.Env(); len(env) > 0 {
		sb.WriteString("env")
		for _, kv := range env {
			sb.WriteString(" " + process.Quote(kv))
		}
		sb.WriteString(" ")
	}
	sb.WriteString(cmd.String())
	return sb.String()
}
