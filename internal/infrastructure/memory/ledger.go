package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Ledger: симуляция реестра балансов. Все операции атомарны под одной блокировкой.
type Ledger struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]valueobject.Amount
	pools    map[repository.Pool]valueobject.Amount
	entries  []repository.LedgerEntry
	now      func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[uuid.UUID]valueobject.Amount),
		pools:    make(map[repository.Pool]valueobject.Amount),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) TopUp(ctx context.Context, account uuid.UUID, amount valueobject.Amount) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[account] = l.balance(account).Add(amount)
	l.record(account, "", repository.TransferTopUp, 0, amount)
	return nil
}

func (l *Ledger) Lock(ctx context.Context, from uuid.UUID, pool repository.Pool, amount valueobject.Amount, kind repository.TransferKind, jobID uint64) error {
	if amount.IsZero() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rest, err := l.balance(from).Sub(amount)
	if err != nil {
		return err
	}
	l.accounts[from] = rest
	l.pools[pool] = l.poolBalance(pool).Add(amount)
	l.record(from, pool, kind, jobID, amount)
	return nil
}

// Settle выплачивает из пула. Если пула не хватает на все переводы,
// не выполняется ни один.
func (l *Ledger) Settle(ctx context.Context, pool repository.Pool, transfers []repository.Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := valueobject.Zero
	for _, t := range transfers {
		total = total.Add(t.Amount)
	}
	rest, err := l.poolBalance(pool).Sub(total)
	if err != nil {
		return err
	}

	l.pools[pool] = rest
	for _, t := range transfers {
		if t.Amount.IsZero() {
			continue
		}
		l.accounts[t.To] = l.balance(t.To).Add(t.Amount)
		l.record(t.To, pool, t.Kind, t.JobID, t.Amount)
	}
	return nil
}

func (l *Ledger) Balance(ctx context.Context, account uuid.UUID) (valueobject.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(account), nil
}

func (l *Ledger) PoolBalance(ctx context.Context, pool repository.Pool) (valueobject.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.poolBalance(pool), nil
}

// Entries возвращает записи по счёту, новые первыми.
func (l *Ledger) Entries(ctx context.Context, account uuid.UUID, limit, offset int) ([]repository.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]repository.LedgerEntry, 0)
	skipped := 0
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Account != account {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, l.entries[i])
	}
	return out, nil
}

func (l *Ledger) balance(account uuid.UUID) valueobject.Amount {
	if b, ok := l.accounts[account]; ok {
		return b
	}
	return valueobject.Zero
}

func (l *Ledger) poolBalance(pool repository.Pool) valueobject.Amount {
	if b, ok := l.pools[pool]; ok {
		return b
	}
	return valueobject.Zero
}

func (l *Ledger) record(account uuid.UUID, pool repository.Pool, kind repository.TransferKind, jobID uint64, amount valueobject.Amount) {
	l.entries = append(l.entries, repository.LedgerEntry{
		ID:        uint64(len(l.entries) + 1),
		Account:   account,
		Pool:      pool,
		Kind:      kind,
		JobID:     jobID,
		Amount:    amount,
		CreatedAt: l.now(),
	})
}
