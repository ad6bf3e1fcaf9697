package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

// Pool: общий пул хранения средств (эскроу, залоги по спорам).
type Pool string

const (
	PoolEscrow  Pool = "escrow"
	PoolDispute Pool = "dispute"
)

// TransferKind описывает назначение перевода в журнале.
type TransferKind string

const (
	TransferTopUp        TransferKind = "top_up"
	TransferDeposit      TransferKind = "deposit"
	TransferPayout       TransferKind = "payout"
	TransferFee          TransferKind = "fee"
	TransferRefund       TransferKind = "refund"
	TransferStake        TransferKind = "stake"
	TransferStakeReturn  TransferKind = "stake_return"
	TransferStakeForfeit TransferKind = "stake_forfeit"
)

// Transfer: выплата из пула на счёт.
type Transfer struct {
	To     uuid.UUID
	Amount valueobject.Amount
	Kind   TransferKind
	JobID  uint64
}

// LedgerEntry: строка журнала движения средств.
type LedgerEntry struct {
	ID        uint64
	Account   uuid.UUID
	Pool      Pool
	Kind      TransferKind
	JobID     uint64
	Amount    valueobject.Amount
	CreatedAt time.Time
}

// Ledger хранит балансы счетов и пулов. TopUp зачисляет внешние средства
// на счёт, Lock переводит средства со счёта в пул, Settle выплачивает из пула
// атомарно: либо все переводы, либо ни одного.
type Ledger interface {
	TopUp(ctx context.Context, account uuid.UUID, amount valueobject.Amount) error
	Lock(ctx context.Context, from uuid.UUID, pool Pool, amount valueobject.Amount, kind TransferKind, jobID uint64) error
	Settle(ctx context.Context, pool Pool, transfers []Transfer) error
	Balance(ctx context.Context, account uuid.UUID) (valueobject.Amount, error)
	PoolBalance(ctx context.Context, pool Pool) (valueobject.Amount, error)
	Entries(ctx context.Context, account uuid.UUID, limit, offset int) ([]LedgerEntry, error)
}
