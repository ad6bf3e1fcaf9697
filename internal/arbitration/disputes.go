package arbitration

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

// CreateDispute открывает спор по работе. Залог списывается со счёта
// инициатора в пул споров, спор сохраняется, и только потом работа
// переводится в DISPUTED. Если эскроу отказал, спор снимается, залог
// возвращается.
func (m *Module) CreateDispute(ctx context.Context, caller uuid.UUID, params entity.DisputeParams, stake valueobject.Amount) (*entity.Dispute, error) {
	if caller == uuid.Nil {
		return nil, apperror.ErrMissingCaller
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.escrow == nil {
		return nil, apperror.ErrNotWired
	}
	if stake.LessThan(m.cfg.MinStake) {
		return nil, apperror.ErrStakeTooLow
	}

	job, err := m.escrow.GetJob(ctx, params.JobID)
	if err != nil {
		return nil, err
	}
	other, err := counterpartyOf(job, caller)
	if err != nil {
		return nil, err
	}
	if params.Counterparty == uuid.Nil {
		params.Counterparty = other
	} else if params.Counterparty != other {
		return nil, apperror.New(apperror.ErrCodeValidation, "Counterparty must be the other job participant")
	}

	now := m.clock.Now()
	dispute, err := entity.NewDispute(caller, params, stake, m.cfg.Quorum, now)
	if err != nil {
		return nil, err
	}
	id, err := m.disputes.NextID(ctx)
	if err != nil {
		return nil, err
	}
	dispute.ID = id

	if err := m.ledger.Lock(ctx, caller, repository.PoolDispute, stake, repository.TransferStake, params.JobID); err != nil {
		return nil, err
	}
	if err := m.disputes.Create(ctx, dispute); err != nil {
		m.payStake(ctx, dispute, caller, repository.TransferStakeReturn)
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to store dispute")
	}
	if _, err := m.escrow.OpenDispute(ctx, m.cfg.Account, params.JobID, caller); err != nil {
		if delErr := m.disputes.Delete(ctx, id); delErr != nil {
			logger.WithFields(logrus.Fields{
				"dispute_id": id,
				"job_id":     params.JobID,
				"error":      delErr.Error(),
			}).Error("arbitration: не удалось снять неоткрытый спор")
		}
		m.payStake(ctx, dispute, caller, repository.TransferStakeReturn)
		return nil, err
	}

	m.publish(ctx, dispute, dispute.Parties(), entity.EventDisputeOpened, map[string]any{
		"initiator":    dispute.Initiator,
		"counterparty": dispute.Counterparty,
		"category":     dispute.Category,
		"amount":       dispute.Amount,
		"stake":        dispute.Stake,
		"title":        dispute.Title,
	})
	return dispute.Clone(), nil
}

func counterpartyOf(job *entity.Job, caller uuid.UUID) (uuid.UUID, error) {
	switch {
	case job.IsClient(caller) && job.HasFreelancer():
		return job.Freelancer, nil
	case job.IsFreelancer(caller):
		return job.Client, nil
	case job.IsClient(caller):
		return uuid.Nil, apperror.ErrJobNotDisputable
	}
	return uuid.Nil, apperror.ErrNotParticipant
}

// VoteOnDispute учитывает голос участника DAO (true: в пользу клиента).
// Голос, набирающий кворум, сразу исполняет решение.
func (m *Module) VoteOnDispute(ctx context.Context, caller uuid.UUID, disputeID uint64, voteForClient bool) (*entity.Dispute, error) {
	if caller == uuid.Nil {
		return nil, apperror.ErrMissingCaller
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	member, err := m.members.Contains(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperror.ErrOnlyDaoMember
	}

	dispute, err := m.disputes.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	snapshot := dispute.Clone()
	if err := dispute.Vote(caller, voteForClient); err != nil {
		return nil, err
	}

	decided, clientWins := dispute.Outcome()
	if !decided {
		if err := m.disputes.Update(ctx, dispute); err != nil {
			return nil, err
		}
	} else if err := m.settle(ctx, snapshot, dispute, clientWins); err != nil {
		return nil, err
	}

	m.publish(ctx, dispute, dispute.Parties(), entity.EventVoteCast, map[string]any{
		"member":     caller,
		"for_client": voteForClient,
	})
	if decided {
		m.afterResolution(ctx, dispute)
	}
	return dispute.Clone(), nil
}

// AutoResolveDispute закрывает спор о просрочке без голосования. Работа
// должна быть просрочена на момент вызова. Вызвать могут стороны спора
// или участники DAO.
func (m *Module) AutoResolveDispute(ctx context.Context, caller uuid.UUID, disputeID uint64) (*entity.Dispute, error) {
	if caller == uuid.Nil {
		return nil, apperror.ErrMissingCaller
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.escrow == nil {
		return nil, apperror.ErrNotWired
	}
	dispute, err := m.disputes.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if caller != dispute.Initiator && caller != dispute.Counterparty {
		member, err := m.members.Contains(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, apperror.ErrUnauthorized
		}
	}
	if !dispute.Status.IsOpen() {
		return nil, apperror.ErrDisputeClosed
	}
	if !dispute.Category.AutoResolvable() {
		return nil, apperror.ErrNotAutoResolvable
	}

	snapshot := dispute.Clone()
	if err := dispute.Resolve(valueobject.DisputeStatusResolvedLate, m.clock.Now()); err != nil {
		return nil, err
	}
	if err := m.disputes.Update(ctx, dispute); err != nil {
		return nil, err
	}
	if _, err := m.escrow.ResolveInFavorOfFreelancer(ctx, m.cfg.Account, dispute.JobID, valueobject.FeeTierLate); err != nil {
		m.restore(ctx, snapshot, err)
		return nil, err
	}

	m.afterResolution(ctx, dispute)
	return dispute.Clone(), nil
}

// settle закрывает спор по итогам голосования. Решение сначала
// сохраняется, затем исполняется в эскроу; при отказе эскроу спор
// возвращается к snapshot.
func (m *Module) settle(ctx context.Context, snapshot, dispute *entity.Dispute, clientWins bool) error {
	if m.escrow == nil {
		return apperror.ErrNotWired
	}
	status := valueobject.DisputeStatusResolvedFreelancer
	if clientWins {
		status = valueobject.DisputeStatusResolvedClient
	}
	if err := dispute.Resolve(status, m.clock.Now()); err != nil {
		return err
	}
	if err := m.disputes.Update(ctx, dispute); err != nil {
		return err
	}

	var err error
	if clientWins {
		_, err = m.escrow.ResolveInFavorOfClient(ctx, m.cfg.Account, dispute.JobID)
	} else {
		_, err = m.escrow.ResolveInFavorOfFreelancer(ctx, m.cfg.Account, dispute.JobID, valueobject.FeeTierStandard)
	}
	if err != nil {
		m.restore(ctx, snapshot, err)
		return err
	}
	return nil
}

func (m *Module) restore(ctx context.Context, snapshot *entity.Dispute, cause error) {
	if err := m.disputes.Update(ctx, snapshot); err != nil {
		logger.WithFields(logrus.Fields{
			"dispute_id": snapshot.ID,
			"cause":      cause.Error(),
			"error":      err.Error(),
		}).Error("arbitration: не удалось откатить спор")
	}
}

// afterResolution распоряжается залогом и публикует итог. Залог
// возвращается инициатору, если решение в его пользу, иначе уходит в казну.
func (m *Module) afterResolution(ctx context.Context, dispute *entity.Dispute) {
	job, err := m.escrow.GetJob(ctx, dispute.JobID)
	if err != nil {
		logger.WithFields(logrus.Fields{"dispute_id": dispute.ID, "error": err.Error()}).Error("arbitration: работа спора не найдена")
		return
	}

	disposition := "returned"
	if dispute.InitiatorWon(job) {
		m.payStake(ctx, dispute, dispute.Initiator, repository.TransferStakeReturn)
	} else {
		disposition = "forfeited"
		m.payStake(ctx, dispute, m.cfg.Treasury, repository.TransferStakeForfeit)
	}

	m.publish(ctx, dispute, dispute.Parties(), entity.EventDisputeResolved, map[string]any{
		"status":     dispute.Status,
		"job_status": job.Status,
		"stake":      disposition,
	})
}

func (m *Module) payStake(ctx context.Context, dispute *entity.Dispute, to uuid.UUID, kind repository.TransferKind) {
	if dispute.Stake.IsZero() {
		return
	}
	transfers := []repository.Transfer{{To: to, Amount: dispute.Stake, Kind: kind, JobID: dispute.JobID}}
	if err := m.ledger.Settle(ctx, repository.PoolDispute, transfers); err != nil {
		logger.WithFields(logrus.Fields{
			"dispute_id": dispute.ID,
			"to":         to,
			"kind":       kind,
			"error":      err.Error(),
		}).Error("arbitration: не удалось распорядиться залогом")
	}
}
