package dto

import (
	"time"

	"vlanman/internal/entity"
)

type CreateVlanRequest struct {
	VlanID      int    `json:"vlan_id" validate:"required"`
	Name        string `json:"vlan_name" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=255"`
	SubnetMask  string `json:"subnet_mask" validate:"omitempty"`
	AutoDelete  bool   `json:"auto_delete"`
	ExpiryHours int    `json:"expiry_hours" validate:"omitempty,min=1"`
}

type UpdateVlanRequest struct {
	Name        *string `json:"vlan_name" validate:"omitempty"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	SubnetMask  *string `json:"subnet_mask" validate:"omitempty"`
}

type VlanResponse struct {
	ID           string     `json:"id"`
	VlanID       int        `json:"vlan_id"`
	Name         string     `json:"vlan_name"`
	Description  string     `json:"description"`
	OwnerID      string     `json:"owner_id"`
	SubnetMask   string     `json:"subnet_mask"`
	MaxHosts     *int       `json:"max_hosts"`
	HostCount    int        `json:"host_count"`
	Status       string     `json:"status"`
	AutoDelete   bool       `json:"auto_delete"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	DeviceSynced bool       `json:"device_synced"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func VlanResponseFromEntity(record *entity.VlanRecord) VlanResponse {
	return VlanResponse{
		ID:           record.ID.String(),
		VlanID:       record.VlanID,
		Name:         record.Name,
		Description:  record.Description,
		OwnerID:      record.OwnerID.String(),
		SubnetMask:   record.SubnetMask,
		MaxHosts:     record.MaxHosts,
		HostCount:    record.HostCount,
		Status:       string(record.Status),
		AutoDelete:   record.AutoDelete,
		ExpiresAt:    record.ExpiresAt,
		DeviceSynced: record.DeviceSynced,
		SyncedAt:     record.SyncedAt,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func VlanResponsesFromEntities(records []entity.VlanRecord) []VlanResponse {
	responses := make([]VlanResponse, 0, len(records))
	for i := range records {
		responses = append(responses, VlanResponseFromEntity(&records[i]))
	}
	return responses
}

type ActivityResponse struct {
	ID        string    `json:"id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	VlanID    *int      `json:"vlan_id,omitempty"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	IPAddress *string   `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ActivityResponseFromEntity(entry *entity.ActivityLog) ActivityResponse {
	response := ActivityResponse{
		ID:        entry.ID.String(),
		VlanID:    entry.VlanID,
		Action:    string(entry.Action),
		Status:    string(entry.Status),
		Detail:    entry.Detail,
		IPAddress: entry.IPAddress,
		CreatedAt: entry.CreatedAt,
	}
	if entry.ActorID != nil {
		id := entry.ActorID.String()
		response.ActorID = &id
	}
	return response
}

func ActivityResponsesFromEntities(entries []entity.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ActivityResponseFromEntity(&entries[i]))
	}
	return responses
}
