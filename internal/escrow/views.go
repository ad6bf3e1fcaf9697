package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

func (e *Engine) GetJob(ctx context.Context, jobID uint64) (*entity.Job, error) {
	if err := checkReentry(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.jobs.FindByID(ctx, jobID)
}

func (e *Engine) GetMilestone(ctx context.Context, jobID uint64, index int) (entity.Milestone, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return entity.Milestone{}, err
	}
	return job.Milestone(index)
}

func (e *Engine) GetFreelancerJobs(ctx context.Context, freelancer uuid.UUID) ([]*entity.Job, error) {
	if err := checkReentry(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.jobs.FindByFreelancer(ctx, freelancer)
}

func (e *Engine) GetClientJobs(ctx context.Context, client uuid.UUID) ([]*entity.Job, error) {
	if err := checkReentry(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.jobs.FindByClient(ctx, client)
}

// Audit сверяет пул эскроу с суммой остатков по всем работам.
type Audit struct {
	PoolBalance valueobject.Amount `json:"pool_balance"`
	JobsHeld    valueobject.Amount `json:"jobs_held"`
	Jobs        int                `json:"jobs"`
	Balanced    bool               `json:"balanced"`
}

func (e *Engine) Audit(ctx context.Context) (Audit, error) {
	if err := checkReentry(ctx); err != nil {
		return Audit{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	jobs, err := e.jobs.List(ctx)
	if err != nil {
		return Audit{}, err
	}
	held := valueobject.Zero
	for _, job := range jobs {
		if err := job.CheckInvariants(); err != nil {
			return Audit{}, err
		}
		held = held.Add(job.EscrowBalance())
	}
	pool, err := e.ledger.PoolBalance(ctx, repository.PoolEscrow)
	if err != nil {
		return Audit{}, err
	}
	return Audit{
		PoolBalance: pool,
		JobsHeld:    held,
		Jobs:        len(jobs),
		Balanced:    pool.Equal(held),
	}, nil
}
