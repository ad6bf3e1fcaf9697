package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// SetDisputeContract регистрирует аккаунт модуля споров. Только владелец.
func (e *Engine) SetDisputeContract(ctx context.Context, caller, module uuid.UUID) error {
	if err := enter(ctx, caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return apperror.ErrOnlyOwner
	}
	if module == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "dispute contract account is required")
	}
	e.disputeModule = module
	return nil
}

func (e *Engine) DisputeContract() uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disputeModule
}

func (e *Engine) requireDisputeModule(caller uuid.UUID) error {
	if e.disputeModule == uuid.Nil {
		return apperror.ErrNotWired
	}
	if caller != e.disputeModule {
		return apperror.ErrOnlyDisputeModule
	}
	return nil
}

// OpenDispute переводит работу в DISPUTED по запросу модуля споров.
// Инициатор должен быть клиентом или исполнителем работы.
func (e *Engine) OpenDispute(ctx context.Context, caller uuid.UUID, jobID uint64, initiator uuid.UUID) (*entity.Job, error) {
	if err := enter(ctx, caller); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireDisputeModule(caller); err != nil {
		return nil, err
	}
	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.IsClient(initiator) && !job.IsFreelancer(initiator) {
		return nil, apperror.ErrNotParticipant
	}
	if err := job.OpenDispute(e.clock.Now()); err != nil {
		return nil, err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	e.publish(ctx, job, entity.EventJobDisputed, map[string]any{
		"initiator":    initiator,
		"prior_status": job.PriorStatus,
	})
	return job.Clone(), nil
}

// ResolveInFavorOfClient возвращает клиенту всё неподтверждённое и закрывает работу.
func (e *Engine) ResolveInFavorOfClient(ctx context.Context, caller uuid.UUID, jobID uint64) (valueobject.Amount, error) {
	if err := enter(ctx, caller); err != nil {
		return valueobject.Amount{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireDisputeModule(caller); err != nil {
		return valueobject.Amount{}, err
	}
	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return valueobject.Amount{}, err
	}

	snapshot := job.Clone()
	refund, err := job.ResolveForClient(e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.commit(ctx, snapshot, job, payout(job.Client, refund, repository.TransferRefund, jobID)); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventDisputeSettled, map[string]any{
		"outcome": "client",
		"refund":  refund,
		"status":  job.Status,
	})
	return refund, nil
}

// ResolveInFavorOfFreelancer закрывает спор в пользу исполнителя.
// FeeTierLate закрепляет повышенную комиссию и возвращает работу клиенту
// на подтверждение; FeeTierStandard подтверждает всю сумму сразу.
func (e *Engine) ResolveInFavorOfFreelancer(ctx context.Context, caller uuid.UUID, jobID uint64, tier valueobject.FeeTier) (valueobject.Amount, error) {
	if err := enter(ctx, caller); err != nil {
		return valueobject.Amount{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireDisputeModule(caller); err != nil {
		return valueobject.Amount{}, err
	}
	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return valueobject.Amount{}, err
	}

	snapshot := job.Clone()
	released, err := job.ResolveForFreelancer(tier, e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.commit(ctx, snapshot, job, nil); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventDisputeSettled, map[string]any{
		"outcome":  "freelancer",
		"tier":     tier,
		"released": released,
		"status":   job.Status,
	})
	return released, nil
}
