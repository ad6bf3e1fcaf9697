// Package escrow реализует движок расчётов: хранение средств по работам,
// подтверждение, выплаты с комиссией, возвраты и решения по спорам.
package escrow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
	"github.com/freelancedao/settlement/internal/pkg/clock"
)

// Config: параметры, фиксируемые при создании движка.
type Config struct {
	Owner    uuid.UUID
	Treasury uuid.UUID
	Fees     valueobject.FeeSchedule
}

// Engine выполняет каждую операцию целиком под одной блокировкой.
// Сначала проверки, затем изменение состояния, и только потом переводы.
type Engine struct {
	mu     sync.RWMutex
	jobs   repository.JobRepository
	ledger repository.Ledger
	sink   events.Sink
	clock  clock.Clock

	owner         uuid.UUID
	treasury      uuid.UUID
	fees          valueobject.FeeSchedule
	disputeModule uuid.UUID
}

func NewEngine(jobs repository.JobRepository, ledger repository.Ledger, sink events.Sink, clk clock.Clock, cfg Config) (*Engine, error) {
	if cfg.Owner == uuid.Nil || cfg.Treasury == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "escrow: owner and treasury accounts are required")
	}
	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.LogSink{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Engine{
		jobs:     jobs,
		ledger:   ledger,
		sink:     sink,
		clock:    clk,
		owner:    cfg.Owner,
		treasury: cfg.Treasury,
		fees:     cfg.Fees,
	}, nil
}

func (e *Engine) Treasury() uuid.UUID {
	return e.treasury
}

func (e *Engine) Fees() valueobject.FeeSchedule {
	return e.fees
}

type settlementKey struct{}

// withSettlement помечает контекст, с которым движок обращается к реестру.
// Вызов движка с таким контекстом: повторный вход.
func withSettlement(ctx context.Context, jobID uint64) context.Context {
	return context.WithValue(ctx, settlementKey{}, jobID)
}

func checkReentry(ctx context.Context) error {
	if ctx.Value(settlementKey{}) != nil {
		return apperror.ErrReentrantCall
	}
	return nil
}

func enter(ctx context.Context, caller uuid.UUID) error {
	if err := checkReentry(ctx); err != nil {
		return err
	}
	if caller == uuid.Nil {
		return apperror.ErrMissingCaller
	}
	return nil
}

func payout(to uuid.UUID, amount valueobject.Amount, kind repository.TransferKind, jobID uint64) []repository.Transfer {
	if amount.IsZero() {
		return nil
	}
	return []repository.Transfer{{To: to, Amount: amount, Kind: kind, JobID: jobID}}
}

// commit сохраняет работу и выплачивает из пула эскроу. Если выплата не
// прошла, в хранилище возвращается снимок до вызова.
func (e *Engine) commit(ctx context.Context, snapshot, job *entity.Job, transfers []repository.Transfer) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	if err := e.jobs.Update(ctx, job); err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}
	if err := e.ledger.Settle(withSettlement(ctx, job.ID), repository.PoolEscrow, transfers); err != nil {
		return e.restore(ctx, err, snapshot)
	}
	return nil
}

func (e *Engine) restore(ctx context.Context, cause error, snapshots ...*entity.Job) error {
	errs := []error{cause}
	for _, s := range snapshots {
		if err := e.jobs.Update(ctx, s); err != nil {
			logger.WithFields(logrus.Fields{
				"job_id": s.ID,
				"error":  err.Error(),
			}).Error("escrow: не удалось восстановить состояние работы")
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

func (e *Engine) publish(ctx context.Context, job *entity.Job, name entity.EventName, data map[string]any) {
	recipients := []uuid.UUID{job.Client}
	if job.HasFreelancer() {
		recipients = append(recipients, job.Freelancer)
	}
	event := entity.Event{
		Name:       name,
		JobID:      job.ID,
		Data:       data,
		Recipients: recipients,
		CreatedAt:  e.clock.Now(),
	}
	if err := e.sink.Publish(ctx, event); err != nil {
		logger.WithFields(logrus.Fields{
			"job_id": job.ID,
			"event":  name,
			"error":  err.Error(),
		}).Warn("escrow: не удалось опубликовать событие")
	}
}
