package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// MarkDelivery отмечает сдачу. Для фиксированной работы индекс игнорируется.
// Возвращает true, если сдача пришла после дедлайна.
func (e *Engine) MarkDelivery(ctx context.Context, caller uuid.UUID, jobID uint64, index int) (bool, error) {
	if err := enter(ctx, caller); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !job.IsFreelancer(caller) {
		return false, apperror.ErrOnlyFreelancer
	}
	if job.Type == valueobject.JobTypeFixed {
		index = 0
	}

	late, err := job.MarkDelivery(index, e.clock.Now())
	if err != nil {
		return false, err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return false, err
	}

	e.publish(ctx, job, entity.EventDeliveryMarked, map[string]any{
		"milestone_index": index,
		"is_late":         late,
	})
	return late, nil
}

// ConfirmFixedJob подтверждает сданную фиксированную работу. Средства
// остаются в эскроу до вывода исполнителем.
func (e *Engine) ConfirmFixedJob(ctx context.Context, caller uuid.UUID, jobID uint64) (valueobject.Amount, error) {
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

	amount, err := job.ConfirmFixed(e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := job.CheckInvariants(); err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventFixedJobConfirmed, map[string]any{"amount": amount})
	return amount, nil
}

func (e *Engine) ConfirmMilestone(ctx context.Context, caller uuid.UUID, jobID uint64, index int) (valueobject.Amount, error) {
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

	amount, err := job.ConfirmMilestone(index, e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := job.CheckInvariants(); err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventMilestoneConfirmed, map[string]any{
		"milestone_index": index,
		"amount":          amount,
		"status":          job.Status,
	})
	return amount, nil
}
