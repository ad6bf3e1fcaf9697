package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Withdrawal: расчёт выплаты по одной работе. Payable = Fee + Net.
type Withdrawal struct {
	JobID   uint64              `json:"job_id"`
	Payable valueobject.Amount  `json:"payable"`
	Fee     valueobject.Amount  `json:"fee"`
	Net     valueobject.Amount  `json:"net"`
	Tier    valueobject.FeeTier `json:"tier"`
	FeeBps  int64               `json:"fee_bps"`
}

// BatchWithdrawal: итог пакетного вывода.
type BatchWithdrawal struct {
	Items    []Withdrawal       `json:"items"`
	TotalFee valueobject.Amount `json:"total_fee"`
	TotalNet valueobject.Amount `json:"total_net"`
}

func (e *Engine) quote(job *entity.Job) Withdrawal {
	payable := job.Payable()
	tier := job.WithdrawalTier()
	fee, net := e.fees.Split(payable, tier)
	return Withdrawal{
		JobID:   job.ID,
		Payable: payable,
		Fee:     fee,
		Net:     net,
		Tier:    tier,
		FeeBps:  e.fees.Bps(tier),
	}
}

func (w Withdrawal) transfers(freelancer, treasury uuid.UUID) []repository.Transfer {
	out := payout(freelancer, w.Net, repository.TransferPayout, w.JobID)
	return append(out, payout(treasury, w.Fee, repository.TransferFee, w.JobID)...)
}

// GetAvailableWithdrawal показывает, сколько исполнитель получит сейчас и по какой ставке.
func (e *Engine) GetAvailableWithdrawal(ctx context.Context, jobID uint64) (Withdrawal, error) {
	if err := checkReentry(ctx); err != nil {
		return Withdrawal{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return Withdrawal{}, err
	}
	return e.quote(job), nil
}

// Withdraw выплачивает исполнителю подтверждённый остаток за вычетом комиссии.
// withdrawn растёт на всю сумму до перевода, поэтому повторный вызов
// без новых подтверждений возвращает нулевую выплату.
func (e *Engine) Withdraw(ctx context.Context, caller uuid.UUID, jobID uint64) (Withdrawal, error) {
	if err := enter(ctx, caller); err != nil {
		return Withdrawal{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return Withdrawal{}, err
	}
	if !job.IsFreelancer(caller) {
		return Withdrawal{}, apperror.ErrOnlyFreelancer
	}

	w := e.quote(job)
	if w.Payable.IsZero() {
		return w, nil
	}

	snapshot := job.Clone()
	if err := job.RecordWithdrawal(w.Payable, e.clock.Now()); err != nil {
		return Withdrawal{}, err
	}
	if err := e.commit(ctx, snapshot, job, w.transfers(job.Freelancer, e.treasury)); err != nil {
		return Withdrawal{}, err
	}

	e.publishWithdrawal(ctx, job, w)
	return w, nil
}

// BatchWithdraw выводит средства по нескольким работам одним переводом.
// Все работы проверяются заранее: одна неверная отменяет весь пакет.
// Работа без доступной суммы даёт нулевую строку и ошибкой не считается.
func (e *Engine) BatchWithdraw(ctx context.Context, caller uuid.UUID, jobIDs []uint64) (BatchWithdrawal, error) {
	if err := enter(ctx, caller); err != nil {
		return BatchWithdrawal{}, err
	}
	if len(jobIDs) == 0 {
		return BatchWithdrawal{}, apperror.ErrEmptyBatch
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[uint64]struct{}, len(jobIDs))
	jobs := make([]*entity.Job, 0, len(jobIDs))
	for _, id := range jobIDs {
		if _, dup := seen[id]; dup {
			return BatchWithdrawal{}, apperror.New(apperror.ErrCodeValidation, "Duplicate job in batch")
		}
		seen[id] = struct{}{}

		job, err := e.jobs.FindByID(ctx, id)
		if err != nil {
			return BatchWithdrawal{}, err
		}
		if !job.IsFreelancer(caller) {
			return BatchWithdrawal{}, apperror.ErrOnlyFreelancer
		}
		jobs = append(jobs, job)
	}

	now := e.clock.Now()
	result := BatchWithdrawal{TotalFee: valueobject.Zero, TotalNet: valueobject.Zero}
	snapshots := make([]*entity.Job, 0, len(jobs))
	var transfers []repository.Transfer
	for _, job := range jobs {
		w := e.quote(job)
		result.Items = append(result.Items, w)
		if w.Payable.IsZero() {
			continue
		}
		snapshot := job.Clone()
		if err := job.RecordWithdrawal(w.Payable, now); err != nil {
			return BatchWithdrawal{}, e.restore(ctx, err, snapshots...)
		}
		if err := job.CheckInvariants(); err != nil {
			return BatchWithdrawal{}, e.restore(ctx, err, snapshots...)
		}
		if err := e.jobs.Update(ctx, job); err != nil {
			return BatchWithdrawal{}, e.restore(ctx, err, snapshots...)
		}
		snapshots = append(snapshots, snapshot)
		transfers = append(transfers, w.transfers(caller, e.treasury)...)
		result.TotalFee = result.TotalFee.Add(w.Fee)
		result.TotalNet = result.TotalNet.Add(w.Net)
	}

	if len(transfers) > 0 {
		if err := e.ledger.Settle(withSettlement(ctx, jobs[0].ID), repository.PoolEscrow, transfers); err != nil {
			return BatchWithdrawal{}, e.restore(ctx, err, snapshots...)
		}
	}

	for i, job := range jobs {
		if result.Items[i].Payable.IsPositive() {
			e.publishWithdrawal(ctx, job, result.Items[i])
		}
	}
	return result, nil
}

func (e *Engine) publishWithdrawal(ctx context.Context, job *entity.Job, w Withdrawal) {
	e.publish(ctx, job, entity.EventWithdrawn, map[string]any{
		"freelancer": job.Freelancer,
		"payable":    w.Payable,
		"fee":        w.Fee,
		"net":        w.Net,
		"tier":       w.Tier,
	})
}
