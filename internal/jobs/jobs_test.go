package jobs

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prediction-venue/internal/database"
	"prediction-venue/internal/events"
	"prediction-venue/internal/models"
	"prediction-venue/internal/oracle"
	"prediction-venue/internal/services"
	"prediction-venue/internal/token"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestSettlementJobSettlesResolvedMarkets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	deps := services.Deps{DB: db, Token: token.NewVirtualToken(db, "venue"), Clock: clock.Now}
	manual := oracle.NewManual(db)
	registry := services.NewMarketRegistry(deps, "op")
	settlement := services.NewSettlementService(deps, manual)

	start := clock.Now()
	resolved, err := registry.CreateMarket(ctx, "op", "resolved", start.Add(time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	pending, err := registry.CreateMarket(ctx, "op", "pending", start.Add(time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if err := manual.Resolve(ctx, resolved.ID, models.SideB, "op"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	job := NewSettlementJob(settlement, zap.NewNop())
	job.Run(ctx)
	if m, _ := registry.GetMarket(ctx, resolved.ID); m.Settled {
		t.Fatal("market settled before its settlement time")
	}

	clock.Set(start.Add(3 * time.Hour))
	job.Run(ctx)

	m, err := registry.GetMarket(ctx, resolved.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if !m.Settled || m.Outcome != models.SideB {
		t.Errorf("expected market settled on B, got settled=%v outcome=%v", m.Settled, m.Outcome)
	}
	if m, _ := registry.GetMarket(ctx, pending.ID); m.Settled {
		t.Error("market without an oracle outcome must stay unsettled")
	}
}

type recorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, ev.Kind)
	return nil
}

func TestDispatchJobDrainsOutbox(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	deps := services.Deps{DB: db, Token: token.NewVirtualToken(db, "venue")}
	registry := services.NewMarketRegistry(deps, "op")
	if _, err := registry.CreateMarket(ctx, "op", "outbox", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	rec := &recorder{}
	job := NewDispatchJob(events.NewDispatcher(db, rec, zap.NewNop()), zap.NewNop())
	job.Run(ctx)
	job.Run(ctx)

	if len(rec.kinds) != 1 || rec.kinds[0] != models.EventMarketCreated {
		t.Errorf("expected a single MarketCreated, got %v", rec.kinds)
	}
}

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Name() string            { return "counting" }
func (j *countingJob) Run(ctx context.Context) { j.runs.Add(1) }

func TestSchedulerRunsJobsUntilCancelled(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Add(ctx, "not a spec", &countingJob{}); err == nil {
		t.Error("expected invalid spec to be rejected")
	}

	job := &countingJob{}
	if err := s.Add(ctx, "* * * * * *", job); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
