package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// defaultDialTimeout bounds the TCP dial and SSH handshake.
const defaultDialTimeout = 30 * time.Second

// ErrNoAuthMethods is returned when neither a password, the SSH agent nor a default key is usable.
var ErrNoAuthMethods = errors.New("no SSH authentication methods available (tried password, SSH agent and default keys)")

// SFTPConnection holds an active SSH connection.
// SFTP sessions are opened on it by SFTPClientPool.
type SFTPConnection struct {
	sshClient *ssh.Client
}

// ConnectOptions configures an SSH connection.
type ConnectOptions struct {
	Host     string
	Port     int
	User     string
	Password string

	// KnownHostsFile verifies the server key. Empty means ~/.ssh/known_hosts
	// when it exists; without a known_hosts file the host key is not checked.
	KnownHostsFile string

	Timeout time.Duration
}

// Connect establishes an SSH connection using the password, the SSH agent and
// default SSH keys, in that order.
func Connect(ctx context.Context, opts ConnectOptions) (*SFTPConnection, error) {
	authMethods := getSSHAuthMethods(opts.Password)
	if len(authMethods) == 0 {
		return nil, ErrNoAuthMethods
	}

	hostKeyCallback, err := hostKeyCallback(opts.KnownHostsFile)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	config := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	dialer := &net.Dialer{Timeout: timeout}

	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	return &SFTPConnection{
		sshClient: ssh.NewClient(sshConn, chans, reqs),
	}, nil
}

// Close closes the SSH connection.
func (c *SFTPConnection) Close() error {
	if c.sshClient == nil {
		return nil
	}

	return c.sshClient.Close() //nolint:wrapcheck // Cleanup error passed through
}

// NewClient opens a new SFTP session on the connection.
func (c *SFTPConnection) NewClient() (*sftp.Client, error) {
	client, err := sftp.NewClient(c.sshClient)
	if err != nil {
		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return client, nil
}

// hostKeyCallback verifies against the known_hosts file when one is available.
func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // No known_hosts to check against
		}

		knownHostsFile = filepath.Join(homeDir, ".ssh", "known_hosts")
		if _, err := os.Stat(knownHostsFile); err != nil {
			return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // No known_hosts to check against
		}
	}

	callback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", knownHostsFile, err)
	}

	return callback, nil
}

// getSSHAuthMethods returns SSH authentication methods in priority order:
// 1. Password from the source URL
// 2. SSH agent
// 3. Default SSH keys
func getSSHAuthMethods(password string) []ssh.AuthMethod {
	var authMethods []ssh.AuthMethod

	if password != "" {
		authMethods = append(authMethods, ssh.Password(password))
	}

	if agentAuth := trySSHAgent(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	authMethods = append(authMethods, tryDefaultSSHKeys()...)

	return authMethods
}

// trySSHAgent attempts to connect to the SSH agent.
func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// tryDefaultSSHKeys loads unencrypted keys from the default locations.
func tryDefaultSSHKeys() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	sshDir := filepath.Join(homeDir, ".ssh")

	keyFiles := []string{
		filepath.Join(sshDir, "id_ed25519"),
		filepath.Join(sshDir, "id_rsa"),
		filepath.Join(sshDir, "id_ecdsa"),
	}

	var authMethods []ssh.AuthMethod

	for _, keyPath := range keyFiles {
		keyData, err := os.ReadFile(keyPath) //nolint:gosec // Fixed key locations under ~/.ssh
		if err != nil {
			continue
		}

		// Encrypted keys are skipped
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	return authMethods
}
