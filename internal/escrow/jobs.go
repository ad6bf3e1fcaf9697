package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// CreateFixedJob публикует работу с фиксированной оплатой. Если value > 0,
// средства сразу списываются со счёта клиента в эскроу.
func (e *Engine) CreateFixedJob(ctx context.Context, caller uuid.UUID, params entity.JobParams, value valueobject.Amount) (*entity.Job, error) {
	if err := enter(ctx, caller); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := entity.NewFixedJob(caller, params, value, e.clock.Now())
	if err != nil {
		return nil, err
	}
	return e.createJob(ctx, job, value)
}

// CreateMilestoneJob публикует работу с этапами; value может быть нулевым.
func (e *Engine) CreateMilestoneJob(ctx context.Context, caller uuid.UUID, amounts []valueobject.Amount, params entity.JobParams, value valueobject.Amount) (*entity.Job, error) {
	if err := enter(ctx, caller); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := entity.NewMilestoneJob(caller, amounts, params, value, e.clock.Now())
	if err != nil {
		return nil, err
	}
	return e.createJob(ctx, job, value)
}

func (e *Engine) createJob(ctx context.Context, job *entity.Job, value valueobject.Amount) (*entity.Job, error) {
	id, err := e.jobs.NextID(ctx)
	if err != nil {
		return nil, err
	}
	job.ID = id

	if value.IsPositive() {
		if err := e.ledger.Lock(withSettlement(ctx, id), job.Client, repository.PoolEscrow, value, repository.TransferDeposit, id); err != nil {
			return nil, err
		}
	}
	if err := e.jobs.Create(ctx, job); err != nil {
		if value.IsPositive() {
			e.returnDeposit(ctx, job.Client, value, id)
		}
		return nil, err
	}

	e.publish(ctx, job, entity.EventJobCreated, map[string]any{
		"job_type":     job.Type,
		"client":       job.Client,
		"total_amount": job.TotalAmount,
		"deadline":     job.Deadline,
	})
	if job.Funded {
		e.publish(ctx, job, entity.EventJobFunded, map[string]any{"amount": job.Deposited})
	}
	return job.Clone(), nil
}

// returnDeposit возвращает внесённые средства, если работу не удалось сохранить.
func (e *Engine) returnDeposit(ctx context.Context, to uuid.UUID, amount valueobject.Amount, jobID uint64) {
	err := e.ledger.Settle(withSettlement(ctx, jobID), repository.PoolEscrow, payout(to, amount, repository.TransferRefund, jobID))
	if err != nil {
		logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"amount": amount.String(),
			"error":  err.Error(),
		}).Error("escrow: не удалось вернуть депозит")
	}
}

// FundJob оплачивает ранее созданную работу точной суммой.
func (e *Engine) FundJob(ctx context.Context, caller uuid.UUID, jobID uint64, value valueobject.Amount) error {
	if err := enter(ctx, caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.IsClient(caller) {
		return apperror.ErrOnlyClientFund
	}

	snapshot := job.Clone()
	if err := job.Fund(value, e.clock.Now()); err != nil {
		return err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return err
	}
	if err := e.ledger.Lock(withSettlement(ctx, jobID), caller, repository.PoolEscrow, value, repository.TransferDeposit, jobID); err != nil {
		return e.restore(ctx, err, snapshot)
	}

	e.publish(ctx, job, entity.EventJobFunded, map[string]any{"amount": value})
	return nil
}

// RequestJob регистрирует заявку исполнителя. Клиент не может откликнуться на свою работу.
func (e *Engine) RequestJob(ctx context.Context, caller uuid.UUID, jobID uint64) error {
	if err := enter(ctx, caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsClient(caller) {
		return apperror.ErrClientRequest
	}
	if err := job.Request(caller, e.clock.Now()); err != nil {
		return err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return err
	}

	e.publish(ctx, job, entity.EventProviderRequested, map[string]any{"freelancer": caller})
	return nil
}

// ApproveProvider назначает исполнителя. Второе назначение отклоняется.
func (e *Engine) ApproveProvider(ctx context.Context, caller uuid.UUID, jobID uint64, freelancer uuid.UUID) error {
	if err := enter(ctx, caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.IsClient(caller) {
		return apperror.ErrOnlyClient
	}
	if err := job.Approve(freelancer, e.clock.Now()); err != nil {
		return err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return err
	}

	e.publish(ctx, job, entity.EventProviderApproved, map[string]any{"freelancer": freelancer})
	return nil
}

// CancelJob отменяет работу до назначения исполнителя и возвращает клиенту депозит.
func (e *Engine) CancelJob(ctx context.Context, caller uuid.UUID, jobID uint64) (valueobject.Amount, error) {
	if err := enter(ctx, caller); err != nil {
		return valueobject.Amount{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return valueobject.Amount{}, err
	}
	if !job.IsClient(caller) {
		return valueobject.Amount{}, apperror.ErrOnlyClient
	}

	snapshot := job.Clone()
	refund, err := job.Cancel(e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.commit(ctx, snapshot, job, payout(job.Client, refund, repository.TransferRefund, jobID)); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventJobCancelled, map[string]any{"refund": refund})
	return refund, nil
}
