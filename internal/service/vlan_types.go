package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Actor identifies the caller of an orchestrator operation. Elevated
// comes from the external capability check (admin role) and bypasses
// ownership, never the VLAN-1 protection.
type Actor struct {
	ID        uuid.UUID
	Elevated  bool
	IPAddress *string
}

type CreateVlanInput struct {
	VlanID      int
	Name        string
	Description string
	SubnetMask  string
	AutoDelete  bool
	ExpiryHours int
}

type UpdateVlanInput struct {
	Name        *string
	Description *string
	SubnetMask  *string
}

type DeviceStatus struct {
	Connected bool   `json:"connected"`
	Host      string `json:"host"`
	Message   string `json:"message,omitempty"`
}

// DeviceVlan is one row of `show vlan brief` as reported by the
// device itself.
type DeviceVlan struct {
	VlanID int    `json:"vlan_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ParseVlanBrief extracts VLAN rows from raw `show vlan brief`
// output, skipping banners, headers and separator lines.
func ParseVlanBrief(output string) []DeviceVlan {
	var vlans []DeviceVlan
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "VLAN") || strings.HasPrefix(line, "----") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		vlan := DeviceVlan{VlanID: id, Name: fields[1]}
		if len(fields) > 2 {
			vlan.Status = fields[2]
		}
		vlans = append(vlans, vlan)
	}
	return vlans
}
