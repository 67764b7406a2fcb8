package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"vlanman/internal/entity"
	"vlanman/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDevice records every CLI call and fails on demand. Outputs for
// Show are consumed in order; the last one repeats.
type fakeDevice struct {
	mu sync.Mutex

	executed  [][]string
	shown     []string
	persisted int

	executeErr error
	persistErr error
	showErr    error
	showOutput []string

	// failExecuteAfter fails Execute calls once this many have
	// succeeded, for compensation-failure scenarios. Negative means
	// never.
	failExecuteAfter int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{failExecuteAfter: -1}
}

func (d *fakeDevice) Execute(_ context.Context, commands ...string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.executeErr != nil {
		return "", d.executeErr
	}
	if d.failExecuteAfter >= 0 && len(d.executed) >= d.failExecuteAfter {
		return "", fmt.Errorf("simulated device failure")
	}
	batch := append([]string(nil), commands...)
	d.executed = append(d.executed, batch)
	return "", nil
}

func (d *fakeDevice) Show(_ context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.showErr != nil {
		return "", d.showErr
	}
	d.shown = append(d.shown, command)
	if len(d.showOutput) == 0 {
		return "", nil
	}
	out := d.showOutput[0]
	if len(d.showOutput) > 1 {
		d.showOutput = d.showOutput[1:]
	}
	return out, nil
}

func (d *fakeDevice) Persist(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.persistErr != nil {
		return d.persistErr
	}
	d.persisted++
	return nil
}

func (d *fakeDevice) executeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.executed)
}

func (d *fakeDevice) lastBatch() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.executed) == 0 {
		return nil
	}
	return d.executed[len(d.executed)-1]
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A second pool connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.VlanRecord{},
		&entity.Session{},
		&entity.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type vlanFixture struct {
	service    *VlanService
	vlans      repository.VlanRepository
	activities repository.ActivityLogRepository
	device     *fakeDevice
	clock      *fakeClock
	owner      entity.User
}

func newVlanFixture(t *testing.T) *vlanFixture {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	device := newFakeDevice()
	vlans := repository.NewVlanRepository(db)
	activities := repository.NewActivityLogRepository(db)

	owner := entity.User{Name: "Tester", NIM: "24060121", Email: "tester@example.com", Role: entity.UserRoleUser}
	if err := repository.NewUserRepository(db).Create(context.Background(), &owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	return &vlanFixture{
		service:    NewVlanService(vlans, activities, device, clock, testLogger()),
		vlans:      vlans,
		activities: activities,
		device:     device,
		clock:      clock,
		owner:      owner,
	}
}

func (f *vlanFixture) actor() Actor {
	return Actor{ID: f.owner.ID}
}

// erroringVlanRepo forwards everything except the operations told to
// fail, to drive the store-failure branches.
type erroringVlanRepo struct {
	repository.VlanRepository
	createErr error
	updateErr error
	deleteErr error
}

func (r *erroringVlanRepo) Create(ctx context.Context, record *entity.VlanRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.VlanRepository.Create(ctx, record)
}

func (r *erroringVlanRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.VlanRepository.Update(ctx, id, updates)
}

func (r *erroringVlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.VlanRepository.Delete(ctx, id)
}
