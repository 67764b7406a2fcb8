package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/ssh"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func stubDevice(dialErrs ...error) (*SSHDevice, *int) {
	attempts := 0
	device := NewSSHDevice(DeviceConfig{Host: "sw1", Username: "admin", Password: "secret"}, testLogger())
	device.dial = func(network, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
		err := dialErrs[len(dialErrs)-1]
		if attempts < len(dialErrs) {
			err = dialErrs[attempts]
		}
		attempts++
		return nil, err
	}
	return device, &attempts
}

func TestSSHDevice_RetriesOnceOnTimeout(t *testing.T) {
	device, attempts := stubDevice(timeoutError{}, timeoutError{})

	_, err := device.Execute(context.Background(), "vlan 100")
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("Execute() error = %v, want ConnectivityError", err)
	}
	if connErr.Kind != ConnectivityTimeout {
		t.Errorf("Kind = %q, want timeout", connErr.Kind)
	}
	if *attempts != 2 {
		t.Errorf("dial attempts = %d, want 2: one retry after a timeout", *attempts)
	}
}

func TestSSHDevice_SecondFailureIsNotRetried(t *testing.T) {
	device, attempts := stubDevice(timeoutError{}, fmt.Errorf("ssh: handshake failed: connection reset"))

	_, err := device.Show(context.Background(), "show version")
	if err == nil {
		t.Fatal("Show() error = nil, want error from stub")
	}
	if *attempts != 2 {
		t.Errorf("dial attempts = %d, want 2", *attempts)
	}
}

func TestSSHDevice_NoRetryOnAuthFailure(t *testing.T) {
	device, attempts := stubDevice(fmt.Errorf("ssh: unable to authenticate, attempted methods [password]"))

	err := device.Persist(context.Background())
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("Persist() error = %v, want ConnectivityError", err)
	}
	if connErr.Kind != ConnectivityAuthFailed {
		t.Errorf("Kind = %q, want auth_failed", connErr.Kind)
	}
	if *attempts != 1 {
		t.Errorf("dial attempts = %d, want 1: auth failures never retry", *attempts)
	}
}

func TestSSHDevice_CancelledContextSkipsDial(t *testing.T) {
	device, attempts := stubDevice(timeoutError{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := device.Execute(ctx, "vlan 100")
	if err == nil {
		t.Fatal("Execute() error = nil, want cancellation")
	}
	if *attempts != 0 {
		t.Errorf("dial attempts = %d, want 0 with a cancelled context", *attempts)
	}
}

func TestClassifyConnectivity(t *testing.T) {
	testCases := []struct {
		err  error
		want ConnectivityKind
	}{
		{context.DeadlineExceeded, ConnectivityTimeout},
		{timeoutError{}, ConnectivityTimeout},
		{fmt.Errorf("dial: %w", timeoutError{}), ConnectivityTimeout},
		{fmt.Errorf("ssh: unable to authenticate"), ConnectivityAuthFailed},
		{fmt.Errorf("permission denied (password)"), ConnectivityAuthFailed},
		{fmt.Errorf("connect: connection refused"), ConnectivityUnreachable},
		{fmt.Errorf("no route to host"), ConnectivityUnreachable},
	}

	for _, tc := range testCases {
		if got := classifyConnectivity(tc.err); got != tc.want {
			t.Errorf("classifyConnectivity(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestConnectivityErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &ConnectivityError{Kind: ConnectivityUnreachable, Host: "sw1", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectivityError does not unwrap to its cause")
	}
}
