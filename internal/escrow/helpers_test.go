package escrow_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/escrow"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/infrastructure/memory"
	"github.com/freelancedao/settlement/internal/pkg/clock"
)

// hbar: 1 HBAR в tinybar.
const hbar = 100_000_000

func units(n int64) valueobject.Amount {
	return valueobject.AmountOf(n * hbar)
}

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t          *testing.T
	ctx        context.Context
	engine     *escrow.Engine
	jobs       *memory.JobStore
	ledger     repository.Ledger
	recorder   *events.Recorder
	clock      *clock.Manual
	owner      uuid.UUID
	treasury   uuid.UUID
	module     uuid.UUID
	client     uuid.UUID
	freelancer uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLedger(t, memory.NewLedger())
}

func newHarnessWithLedger(t *testing.T, ledger repository.Ledger) *harness {
	t.Helper()
	h := &harness{
		t:          t,
		ctx:        context.Background(),
		jobs:       memory.NewJobStore(),
		ledger:     ledger,
		recorder:   &events.Recorder{},
		clock:      clock.NewManual(start),
		owner:      uuid.New(),
		treasury:   uuid.New(),
		module:     uuid.New(),
		client:     uuid.New(),
		freelancer: uuid.New(),
	}
	engine, err := escrow.NewEngine(h.jobs, ledger, h.recorder, h.clock, escrow.Config{
		Owner:    h.owner,
		Treasury: h.treasury,
		Fees:     valueobject.DefaultFeeSchedule(),
	})
	require.NoError(t, err)
	h.engine = engine
	require.NoError(t, engine.SetDisputeContract(h.ctx, h.owner, h.module))
	return h
}

func (h *harness) topUp(account uuid.UUID, amount valueobject.Amount) {
	h.t.Helper()
	require.NoError(h.t, h.ledger.TopUp(h.ctx, account, amount))
}

func (h *harness) params(total valueobject.Amount) entity.JobParams {
	return entity.JobParams{
		Title:       "Landing page",
		Description: "Static landing page with contact form",
		Budget:      valueobject.Budget{Min: total, Max: total},
		Deadline:    start.Add(7 * 24 * time.Hour),
	}
}

// fixedJob создаёт оплаченную фиксированную работу с назначенным исполнителем.
func (h *harness) fixedJob(total valueobject.Amount) uint64 {
	h.t.Helper()
	return h.fixedJobFor(total, h.freelancer)
}

func (h *harness) fixedJobFor(total valueobject.Amount, freelancer uuid.UUID) uint64 {
	h.t.Helper()
	h.topUp(h.client, total)
	job, err := h.engine.CreateFixedJob(h.ctx, h.client, h.params(total), total)
	require.NoError(h.t, err)
	h.assignTo(job.ID, freelancer)
	return job.ID
}

func (h *harness) milestoneJob(amounts ...valueobject.Amount) uint64 {
	h.t.Helper()
	total := valueobject.Sum(amounts...)
	h.topUp(h.client, total)
	job, err := h.engine.CreateMilestoneJob(h.ctx, h.client, amounts, h.params(total), total)
	require.NoError(h.t, err)
	h.assign(job.ID)
	return job.ID
}

func (h *harness) assign(jobID uint64) {
	h.t.Helper()
	h.assignTo(jobID, h.freelancer)
}

func (h *harness) assignTo(jobID uint64, freelancer uuid.UUID) {
	h.t.Helper()
	require.NoError(h.t, h.engine.RequestJob(h.ctx, freelancer, jobID))
	require.NoError(h.t, h.engine.ApproveProvider(h.ctx, h.client, jobID, freelancer))
}

func (h *harness) job(jobID uint64) *entity.Job {
	h.t.Helper()
	job, err := h.engine.GetJob(h.ctx, jobID)
	require.NoError(h.t, err)
	return job
}

func (h *harness) balance(account uuid.UUID) valueobject.Amount {
	h.t.Helper()
	b, err := h.ledger.Balance(h.ctx, account)
	require.NoError(h.t, err)
	return b
}

func (h *harness) requireBalanced() {
	h.t.Helper()
	audit, err := h.engine.Audit(h.ctx)
	require.NoError(h.t, err)
	require.True(h.t, audit.Balanced, "pool %s, jobs hold %s", audit.PoolBalance, audit.JobsHeld)
}
