package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// ClientRequestRefund возвращает клиенту всё неподтверждённое по работе с
// этапами. Подтверждённые этапы остаются за исполнителем.
func (e *Engine) ClientRequestRefund(ctx context.Context, caller uuid.UUID, jobID uint64) (valueobject.Amount, error) {
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
	refund, err := job.RequestRefund(e.clock.Now())
	if err != nil {
		return valueobject.Amount{}, err
	}
	if err := e.commit(ctx, snapshot, job, payout(job.Client, refund, repository.TransferRefund, jobID)); err != nil {
		return valueobject.Amount{}, err
	}

	e.publish(ctx, job, entity.EventRefundIssued, map[string]any{
		"amount": refund,
		"reason": "client_request",
	})
	return refund, nil
}
