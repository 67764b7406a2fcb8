package service

import (
	"context"
	"fmt"
	"time"
)

// Device CLI vocabulary. Order matters inside a batch: entering the
// vlan context must precede the name command.
func cmdVlan(id int) string       { return fmt.Sprintf("vlan %d", id) }
func cmdVlanName(n string) string { return fmt.Sprintf("name %s", n) }
func cmdNoVlan(id int) string     { return fmt.Sprintf("no vlan %d", id) }
func cmdShowVlan(id int) string   { return fmt.Sprintf("show vlan id %d", id) }

const (
	cmdShowVlanBrief = "show vlan brief"
	cmdShowVersion   = "show version"
)

// DeviceSession is the single serialized CLI channel to the managed
// device. Implementations must allow only one in-flight call at a
// time; concurrent callers queue. Execute sends an ordered command
// batch in configuration mode, Show runs one non-configuration
// command, Persist saves the running config.
type DeviceSession interface {
	Execute(ctx context.Context, commands ...string) (string, error)
	Show(ctx context.Context, command string) (string, error)
	Persist(ctx context.Context) error
}

type DeviceConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	// SessionLogPath, when set, receives an append-only transcript of
	// raw CLI output. Opaque to the rest of the system.
	SessionLogPath string
}

func (c DeviceConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

func (c DeviceConfig) timeout() time.Duration {
	if c.Timeout == 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
