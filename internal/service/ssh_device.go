package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

type sshDialFunc func(network, addr string, config *ssh.ClientConfig) (*ssh.Client, error)

// SSHDevice talks to the switch over an interactive SSH shell. The
// CLI has no request multiplexing, so every call takes the session
// mutex and opens, drives and closes its own connection; the channel
// is released on every exit path.
type SSHDevice struct {
	config DeviceConfig
	log    logrus.FieldLogger

	mu   sync.Mutex
	dial sshDialFunc
}

func NewSSHDevice(config DeviceConfig, log logrus.FieldLogger) *SSHDevice {
	return &SSHDevice{config: config, log: log, dial: ssh.Dial}
}

func (d *SSHDevice) Execute(ctx context.Context, commands ...string) (string, error) {
	batch := make([]string, 0, len(commands)+2)
	batch = append(batch, "configure terminal")
	batch = append(batch, commands...)
	batch = append(batch, "end")
	return d.run(ctx, batch)
}

func (d *SSHDevice) Show(ctx context.Context, command string) (string, error) {
	return d.run(ctx, []string{command})
}

func (d *SSHDevice) Persist(ctx context.Context) error {
	_, err := d.run(ctx, []string{"copy running-config startup-config"})
	return err
}

func (d *SSHDevice) run(ctx context.Context, commands []string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	client, err := d.connect(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	output, err := d.shell(ctx, client, commands)
	d.appendTranscript(commands, output)
	if err != nil {
		return output, d.connectivityError(err)
	}
	return output, nil
}

// connect dials the device, retrying exactly once and only when the
// first attempt timed out. Auth failures and repeated timeouts
// propagate immediately.
func (d *SSHDevice) connect(ctx context.Context) (*ssh.Client, error) {
	clientConfig := &ssh.ClientConfig{
		User:            d.config.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(d.config.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.config.timeout(),
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, d.connectivityError(err)
		}
		client, err := d.dial("tcp", d.config.addr(), clientConfig)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if classifyConnectivity(err) != ConnectivityTimeout {
			break
		}
		d.log.WithError(err).WithField("host", d.config.Host).Warn("connect timed out, retrying once")
	}
	return nil, d.connectivityError(lastErr)
}

func (d *SSHDevice) shell(ctx context.Context, client *ssh.Client, commands []string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	modes := ssh.TerminalModes{ssh.ECHO: 0}
	if err := session.RequestPty("vt100", 80, 200, modes); err != nil {
		return "", err
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return "", err
	}
	var output bytes.Buffer
	session.Stdout = &output
	session.Stderr = &output

	if err := session.Shell(); err != nil {
		return "", err
	}
	for _, command := range commands {
		fmt.Fprintln(stdin, command)
	}
	fmt.Fprintln(stdin, "exit")
	stdin.Close()

	// The CLI command cannot be aborted once sent; the context only
	// bounds how long this caller waits for the result.
	done := make(chan error, 1)
	go func() { done <- session.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return output.String(), err
		}
	case <-ctx.Done():
		return output.String(), ctx.Err()
	}
	return output.String(), nil
}

func (d *SSHDevice) connectivityError(err error) error {
	return &ConnectivityError{Kind: classifyConnectivity(err), Host: d.config.Host, Err: err}
}

func classifyConnectivity(err error) ConnectivityKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ConnectivityTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ConnectivityTimeout
	}
	if strings.Contains(err.Error(), "unable to authenticate") ||
		strings.Contains(err.Error(), "permission denied") {
		return ConnectivityAuthFailed
	}
	return ConnectivityUnreachable
}

func (d *SSHDevice) appendTranscript(commands []string, output string) {
	if d.config.SessionLogPath == "" {
		return
	}
	file, err := os.OpenFile(d.config.SessionLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		d.log.WithError(err).Warn("session log unavailable")
		return
	}
	defer file.Close()
	fmt.Fprintf(file, "--- %s %s\n%s\n", time.Now().UTC().Format(time.RFC3339), strings.Join(commands, "; "), output)
}
