package service

import (
	"context"
	"testing"
	"time"

	"vlanman/internal/entity"
	"vlanman/internal/repository"
)

func TestExpirySweeper(t *testing.T) {
	f := newVlanFixture(t)
	ctx := context.Background()

	// Eligible: auto delete, active, past expiry once the clock moves.
	if _, err := f.service.CreateVlan(ctx, f.actor(), CreateVlanInput{VlanID: 100, Name: "ephemeral", AutoDelete: true, ExpiryHours: 1}); err != nil {
		t.Fatalf("CreateVlan() error = %v", err)
	}
	// Not eligible: no auto delete.
	if _, err := f.service.CreateVlan(ctx, f.actor(), CreateVlanInput{VlanID: 200, Name: "permanent"}); err != nil {
		t.Fatalf("CreateVlan() error = %v", err)
	}
	// Not eligible yet: expiry far in the future.
	if _, err := f.service.CreateVlan(ctx, f.actor(), CreateVlanInput{VlanID: 300, Name: "later", AutoDelete: true, ExpiryHours: 48}); err != nil {
		t.Fatalf("CreateVlan() error = %v", err)
	}

	sweeper := &ExpirySweeper{Vlans: f.vlans, Service: f.service, Clock: f.clock, Log: testLogger()}

	expired, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0 before any deadline passed", expired)
	}

	f.clock.Advance(2 * time.Hour)
	expired, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	check := func(vlanID int, want entity.VlanStatus) {
		record, err := f.vlans.FindByVlanID(ctx, vlanID)
		if err != nil || record == nil {
			t.Fatalf("FindByVlanID(%d) = %v, %v", vlanID, record, err)
		}
		if record.Status != want {
			t.Errorf("VLAN %d status = %q, want %q", vlanID, record.Status, want)
		}
	}
	check(100, entity.VlanStatusExpired)
	check(200, entity.VlanStatusActive)
	check(300, entity.VlanStatusActive)

	// Immediate re-run transitions nothing.
	expired, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("second SweepOnce() error = %v", err)
	}
	if expired != 0 {
		t.Errorf("re-run expired = %d, want 0", expired)
	}
}

func TestExpirySweeper_NeverTouchesDevice(t *testing.T) {
	f := newVlanFixture(t)
	ctx := context.Background()

	if _, err := f.service.CreateVlan(ctx, f.actor(), CreateVlanInput{VlanID: 100, Name: "ephemeral", AutoDelete: true, ExpiryHours: 1}); err != nil {
		t.Fatalf("CreateVlan() error = %v", err)
	}
	calls := f.device.executeCount()
	f.clock.Advance(2 * time.Hour)

	sweeper := &ExpirySweeper{Vlans: f.vlans, Service: f.service, Clock: f.clock, Log: testLogger()}
	if _, err := sweeper.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if n := f.device.executeCount(); n != calls {
		t.Errorf("device received %d batches during sweep, want %d", n, calls)
	}
}

func TestSessionSweeper(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	sessions := repository.NewSessionRepository(db)

	user := entity.User{Name: "Tester", NIM: "24060121", Email: "tester@example.com", Role: entity.UserRoleUser}
	if err := repository.NewUserRepository(db).Create(ctx, &user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	expired := entity.Session{UserID: user.ID, TokenHash: "a", LastActivity: clock.Now(), ExpiresAt: clock.Now().Add(-time.Minute)}
	live := entity.Session{UserID: user.ID, TokenHash: "b", LastActivity: clock.Now(), ExpiresAt: clock.Now().Add(time.Hour)}
	for _, s := range []*entity.Session{&expired, &live} {
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	sweeper := &SessionSweeper{Sessions: sessions, Clock: clock, Log: testLogger()}
	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if got, err := sessions.FindLive(ctx, live.ID, clock.Now()); err != nil || got == nil {
		t.Errorf("live session missing after sweep: %v, %v", got, err)
	}
	if got, err := sessions.FindLive(ctx, expired.ID, clock.Now()); err != nil || got != nil {
		t.Errorf("expired session still live: %v, %v", got, err)
	}
}
