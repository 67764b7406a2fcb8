package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"vlanman/internal/entity"
	"vlanman/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	// VLAN 1 is the device default and is protected here, at the
	// orchestrator boundary, so no entry point can bypass it.
	protectedVlanID = 1

	minVlanID      = 1
	maxVlanID      = 4094
	vlanNameMaxLen = 32
)

// VlanService coordinates the device session, the record store and
// the activity log. Mutating operations are device-first: the CLI
// batch must succeed before the local record is written, and a store
// failure after a device commit triggers exactly one compensating
// command.
type VlanService struct {
	vlans      repository.VlanRepository
	activities repository.ActivityLogRepository
	device     DeviceSession
	clock      Clock
	log        logrus.FieldLogger

	// deviceMu keeps each batch+persist+store sequence from
	// interleaving with another operation's device commands.
	deviceMu sync.Mutex
}

func NewVlanService(
	vlans repository.VlanRepository,
	activities repository.ActivityLogRepository,
	device DeviceSession,
	clock Clock,
	log logrus.FieldLogger,
) *VlanService {
	return &VlanService{
		vlans:      vlans,
		activities: activities,
		device:     device,
		clock:      clock,
		log:        log,
	}
}

func (s *VlanService) CreateVlan(ctx context.Context, actor Actor, input CreateVlanInput) (*entity.VlanRecord, error) {
	if err := validateVlanID(input.VlanID); err != nil {
		return nil, err
	}
	if input.VlanID == protectedVlanID {
		return nil, fmt.Errorf("%w: vlan 1 is reserved", ErrValidation)
	}
	if err := validateVlanName(input.Name); err != nil {
		return nil, err
	}
	if input.SubnetMask == "" {
		input.SubnetMask = "255.255.255.0"
	}
	maxHosts, err := MaxHosts(input.SubnetMask)
	if err != nil {
		return nil, fmt.Errorf("%w: subnet mask %q", ErrValidation, input.SubnetMask)
	}

	existing, err := s.vlans.FindByVlanID(ctx, input.VlanID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
			fmt.Sprintf("VLAN %d already registered", input.VlanID))
		return nil, ErrConflict
	}

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	if _, err := s.device.Execute(ctx, cmdVlan(input.VlanID), cmdVlanName(input.Name)); err != nil {
		s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
			"device create failed")
		return nil, err
	}
	if err := s.device.Persist(ctx); err != nil {
		s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
			"device persist failed")
		return nil, err
	}

	now := s.clock.Now()
	record := &entity.VlanRecord{
		VlanID:       input.VlanID,
		Name:         input.Name,
		Description:  input.Description,
		OwnerID:      actor.ID,
		SubnetMask:   input.SubnetMask,
		MaxHosts:     &maxHosts,
		Status:       entity.VlanStatusActive,
		AutoDelete:   input.AutoDelete,
		DeviceSynced: true,
		SyncedAt:     &now,
	}
	if input.AutoDelete {
		hours := input.ExpiryHours
		if hours <= 0 {
			hours = 24
		}
		expires := now.Add(time.Duration(hours) * time.Hour)
		record.ExpiresAt = &expires
	}

	// The device change is already committed; the store write must
	// finish even if the caller stopped waiting.
	storeCtx := context.WithoutCancel(ctx)
	if err := s.vlans.Create(storeCtx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateVlanID) {
			// Lost the insert race. The winner's record matches the
			// device, so no compensation: removing the VLAN would
			// undo the winner's commit.
			s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
				fmt.Sprintf("VLAN %d already registered", input.VlanID))
			return nil, ErrConflict
		}
		compErr := s.removeFromDevice(storeCtx, input.VlanID)
		if compErr != nil {
			consistency := &ConsistencyError{
				VlanID:     input.VlanID,
				DeviceDone: cmdVlan(input.VlanID),
				StoreErr:   err,
				Compensate: compErr,
			}
			s.log.WithError(consistency).WithField("orphan", true).Error("create compensation failed")
			s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
				"orphaned: device has VLAN, store insert and compensation failed")
			return nil, consistency
		}
		s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivityFailed,
			"store insert failed, device change rolled back")
		return nil, fmt.Errorf("store insert: %w", err)
	}

	s.logActivity(ctx, &actor, &input.VlanID, entity.ActionCreate, entity.ActivitySuccess,
		fmt.Sprintf("Created VLAN %d (%s)", input.VlanID, input.Name),
		map[string]any{"subnet_mask": input.SubnetMask, "max_hosts": maxHosts, "auto_delete": input.AutoDelete})
	return record, nil
}

// ReadVlan prefers a live device query and falls back to the stored
// record when the device is unreachable. The fallback view is marked
// unsynced without touching the stored flag; a device answer updates
// the stored flag in both directions.
func (s *VlanService) ReadVlan(ctx context.Context, actor Actor, vlanID int) (*entity.VlanRecord, error) {
	record, err := s.vlans.FindByVlanID(ctx, vlanID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionRead, entity.ActivityFailed,
			fmt.Sprintf("VLAN %d not found", vlanID))
		return nil, ErrNotFound
	}

	view := *record
	output, err := s.device.Show(ctx, cmdShowVlan(vlanID))
	switch {
	case err != nil:
		view.DeviceSynced = false
	case deviceReportsAbsent(output):
		now := s.clock.Now()
		if err := s.vlans.SetSynced(context.WithoutCancel(ctx), record.ID, false, now); err != nil {
			s.log.WithError(err).Warn("could not record sync state")
		}
		view.DeviceSynced = false
	default:
		now := s.clock.Now()
		if err := s.vlans.SetSynced(context.WithoutCancel(ctx), record.ID, true, now); err != nil {
			s.log.WithError(err).Warn("could not record sync state")
		}
		view.DeviceSynced = true
		view.SyncedAt = &now
	}

	s.logActivity(ctx, &actor, &vlanID, entity.ActionRead, entity.ActivitySuccess,
		fmt.Sprintf("Read VLAN %d", vlanID))
	return &view, nil
}

func (s *VlanService) UpdateVlan(ctx context.Context, actor Actor, vlanID int, input UpdateVlanInput) (*entity.VlanRecord, error) {
	record, err := s.vlans.FindByVlanID(ctx, vlanID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.OwnerID != actor.ID && !actor.Elevated {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivityFailed,
			"ownership check failed")
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if input.Name != nil && *input.Name != record.Name {
		if err := validateVlanName(*input.Name); err != nil {
			return nil, err
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.SubnetMask != nil && *input.SubnetMask != record.SubnetMask {
		maxHosts, err := MaxHosts(*input.SubnetMask)
		if err != nil {
			return nil, fmt.Errorf("%w: subnet mask %q", ErrValidation, *input.SubnetMask)
		}
		if record.HostCount > maxHosts {
			return nil, fmt.Errorf("%w: %d hosts exceed new capacity %d", ErrValidation, record.HostCount, maxHosts)
		}
		updates["subnet_mask"] = *input.SubnetMask
		updates["max_hosts"] = maxHosts
	}
	if len(updates) == 0 {
		return record, nil
	}

	newName, renamed := updates["name"].(string)
	if renamed {
		// The device only knows about names; description and mask
		// changes are store-only.
		s.deviceMu.Lock()
		defer s.deviceMu.Unlock()

		if _, err := s.device.Execute(ctx, cmdVlan(vlanID), cmdVlanName(newName)); err != nil {
			s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivityFailed,
				"device rename failed")
			return nil, err
		}
		if err := s.device.Persist(ctx); err != nil {
			s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivityFailed,
				"device persist failed")
			return nil, err
		}
		now := s.clock.Now()
		updates["device_synced"] = true
		updates["synced_at"] = &now
	}

	storeCtx := context.WithoutCancel(ctx)
	if err := s.vlans.Update(storeCtx, record.ID, updates); err != nil {
		if renamed {
			compErr := s.renameOnDevice(storeCtx, vlanID, record.Name)
			if compErr != nil {
				consistency := &ConsistencyError{
					VlanID:     vlanID,
					DeviceDone: cmdVlanName(newName),
					StoreErr:   err,
					Compensate: compErr,
				}
				s.log.WithError(consistency).WithField("orphan", true).Error("update compensation failed")
				s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivityFailed,
					"orphaned: device renamed, store update and compensation failed")
				return nil, consistency
			}
		}
		s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivityFailed,
			"store update failed")
		return nil, fmt.Errorf("store update: %w", err)
	}

	s.logActivity(ctx, &actor, &vlanID, entity.ActionUpdate, entity.ActivitySuccess,
		fmt.Sprintf("Updated VLAN %d", vlanID))
	return s.vlans.FindByVlanID(storeCtx, vlanID)
}

func (s *VlanService) DeleteVlan(ctx context.Context, actor Actor, vlanID int) error {
	// Unconditional, independent of ownership or elevation.
	if vlanID == protectedVlanID {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
			"VLAN 1 is protected")
		return ErrForbidden
	}

	record, err := s.vlans.FindByVlanID(ctx, vlanID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotFound
	}
	if record.OwnerID != actor.ID && !actor.Elevated {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
			"ownership check failed")
		return ErrForbidden
	}

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	if _, err := s.device.Execute(ctx, cmdNoVlan(vlanID)); err != nil {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
			"device delete failed")
		return err
	}
	if err := s.device.Persist(ctx); err != nil {
		s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
			"device persist failed")
		return err
	}

	storeCtx := context.WithoutCancel(ctx)
	if err := s.vlans.Delete(storeCtx, record.ID); err != nil {
		// Reinstate the VLAN on the device so both sides agree with
		// the row that refused to go away.
		compErr := s.renameOnDevice(storeCtx, vlanID, record.Name)
		if compErr != nil {
			consistency := &ConsistencyError{
				VlanID:     vlanID,
				DeviceDone: cmdNoVlan(vlanID),
				StoreErr:   err,
				Compensate: compErr,
			}
			s.log.WithError(consistency).WithField("orphan", true).Error("delete compensation failed")
			if markErr := s.vlans.SetSynced(storeCtx, record.ID, false, s.clock.Now()); markErr != nil {
				s.log.WithError(markErr).Warn("could not flag orphaned record")
			}
			s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
				"orphaned: device deleted, store removal and compensation failed")
			return consistency
		}
		s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivityFailed,
			"store removal failed, VLAN reinstated on device")
		return fmt.Errorf("store delete: %w", err)
	}

	s.logActivity(ctx, &actor, &vlanID, entity.ActionDelete, entity.ActivitySuccess,
		fmt.Sprintf("Deleted VLAN %d", vlanID))
	return nil
}

// ListVlans reads the store only: one round trip regardless of device
// reachability, each record carrying its last known sync flag.
func (s *VlanService) ListVlans(ctx context.Context) ([]entity.VlanRecord, error) {
	return s.vlans.List(ctx)
}

func (s *VlanService) ListVlansByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.VlanRecord, error) {
	return s.vlans.ListByOwner(ctx, ownerID)
}

// MarkExpired is the status-only transition used by the expiry
// sweeper. It never touches the device and is a no-op when the record
// already left the active state.
func (s *VlanService) MarkExpired(ctx context.Context, record *entity.VlanRecord) (bool, error) {
	if record.VlanID == protectedVlanID {
		return false, ErrForbidden
	}
	changed, err := s.vlans.SetStatus(ctx, record.ID, entity.VlanStatusActive, entity.VlanStatusExpired)
	if err != nil {
		return false, err
	}
	if changed {
		s.logActivity(ctx, nil, &record.VlanID, entity.ActionExpire, entity.ActivitySuccess,
			fmt.Sprintf("VLAN %d expired", record.VlanID))
	}
	return changed, nil
}

func (s *VlanService) CheckDevice(ctx context.Context) DeviceStatus {
	_, err := s.device.Show(ctx, cmdShowVersion)
	status := DeviceStatus{Connected: err == nil}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		status.Host = connErr.Host
		status.Message = string(connErr.Kind)
	} else if err != nil {
		status.Message = err.Error()
	}
	return status
}

func (s *VlanService) DeviceVlans(ctx context.Context) ([]DeviceVlan, error) {
	output, err := s.device.Show(ctx, cmdShowVlanBrief)
	if err != nil {
		return nil, err
	}
	return ParseVlanBrief(output), nil
}

func (s *VlanService) ListActivities(ctx context.Context, limit int) ([]entity.ActivityLog, error) {
	return s.activities.ListRecent(ctx, limit)
}

func (s *VlanService) ListActivitiesByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]entity.ActivityLog, error) {
	return s.activities.ListByActor(ctx, actorID, limit)
}

func (s *VlanService) removeFromDevice(ctx context.Context, vlanID int) error {
	if _, err := s.device.Execute(ctx, cmdNoVlan(vlanID)); err != nil {
		return err
	}
	return s.device.Persist(ctx)
}

func (s *VlanService) renameOnDevice(ctx context.Context, vlanID int, name string) error {
	if _, err := s.device.Execute(ctx, cmdVlan(vlanID), cmdVlanName(name)); err != nil {
		return err
	}
	return s.device.Persist(ctx)
}

// logActivity is best effort: a failed audit write warns and never
// changes the outcome of the operation that triggered it.
func (s *VlanService) logActivity(
	ctx context.Context,
	actor *Actor,
	vlanID *int,
	action entity.ActivityAction,
	status entity.ActivityStatus,
	detail string,
	meta ...map[string]any,
) {
	entry := &entity.ActivityLog{
		VlanID: vlanID,
		Action: action,
		Status: status,
		Detail: detail,
	}
	if actor != nil {
		id := actor.ID
		entry.ActorID = &id
		entry.IPAddress = actor.IPAddress
	}
	if len(meta) > 0 && meta[0] != nil {
		if raw, err := json.Marshal(meta[0]); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	if err := s.activities.Log(context.WithoutCancel(ctx), entry); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("activity log write failed")
	}
}

func deviceReportsAbsent(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "invalid")
}

func validateVlanID(vlanID int) error {
	if vlanID < minVlanID || vlanID > maxVlanID {
		return fmt.Errorf("%w: vlan id must be between %d and %d", ErrValidation, minVlanID, maxVlanID)
	}
	return nil
}

func validateVlanName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: vlan name is required", ErrValidation)
	}
	if len(name) > vlanNameMaxLen {
		return fmt.Errorf("%w: vlan name exceeds %d characters", ErrValidation, vlanNameMaxLen)
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return fmt.Errorf("%w: vlan name must not contain whitespace", ErrValidation)
	}
	return nil
}
