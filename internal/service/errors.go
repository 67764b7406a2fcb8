package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("invalid input")
	ErrConflict       = errors.New("vlan already exists")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidSession = errors.New("invalid or expired session")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

type ConnectivityKind string

const (
	ConnectivityTimeout     ConnectivityKind = "timeout"
	ConnectivityUnreachable ConnectivityKind = "unreachable"
	ConnectivityAuthFailed  ConnectivityKind = "auth_failed"
)

// ConnectivityError reports that the device could not be reached or
// rejected the session. It wraps the transport error that caused it.
type ConnectivityError struct {
	Kind ConnectivityKind
	Host string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("device %s: %s: %v", e.Host, e.Kind, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ConsistencyError reports that the device and the record store
// disagree and the compensating command also failed. The record is
// orphaned and needs manual reconciliation; this is never resolved
// silently.
type ConsistencyError struct {
	VlanID     int
	DeviceDone string // the device command that committed
	StoreErr   error
	Compensate error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("vlan %d orphaned: device committed %q, store failed: %v, compensation failed: %v",
		e.VlanID, e.DeviceDone, e.StoreErr, e.Compensate)
}
