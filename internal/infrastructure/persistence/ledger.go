package persistence

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Ledger ведёт балансы в account_balances и pool_balances. Каждая операция
// выполняется в одной транзакции и пишет строки в ledger_transactions.
type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) TopUp(ctx context.Context, account uuid.UUID, amount valueobject.Amount) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount
	}
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось начать транзакцию")
	}
	defer tx.Rollback()

	if err := credit(ctx, tx, account, amount); err != nil {
		return err
	}
	if err := record(ctx, tx, account, "", repository.TransferTopUp, 0, amount); err != nil {
		return err
	}
	return commit(tx)
}

func (l *Ledger) Lock(ctx context.Context, from uuid.UUID, pool repository.Pool, amount valueobject.Amount, kind repository.TransferKind, jobID uint64) error {
	if amount.IsZero() {
		return nil
	}
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось начать транзакцию")
	}
	defer tx.Rollback()

	// Блокируем строку баланса до конца транзакции
	var available valueobject.Amount
	err = tx.GetContext(ctx, &available, `SELECT balance FROM account_balances WHERE account = $1 FOR UPDATE`, from)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrInsufficientFunds
	}
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить баланс")
	}
	rest, err := available.Sub(amount)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE account_balances SET balance = $2, updated_at = NOW() WHERE account = $1`, from, rest); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось списать средства")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pool_balances (pool, balance) VALUES ($1, $2)
		ON CONFLICT (pool) DO UPDATE SET balance = pool_balances.balance + EXCLUDED.balance, updated_at = NOW()
	`, string(pool), amount); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось пополнить пул")
	}
	if err := record(ctx, tx, from, pool, kind, jobID, amount); err != nil {
		return err
	}
	return commit(tx)
}

// Settle выплачивает из пула все переводы или ни одного.
func (l *Ledger) Settle(ctx context.Context, pool repository.Pool, transfers []repository.Transfer) error {
	total := valueobject.Zero
	for _, t := range transfers {
		total = total.Add(t.Amount)
	}
	if total.IsZero() {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось начать транзакцию")
	}
	defer tx.Rollback()

	var held valueobject.Amount
	err = tx.GetContext(ctx, &held, `SELECT balance FROM pool_balances WHERE pool = $1 FOR UPDATE`, string(pool))
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.ErrInsufficientFunds
	}
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить баланс пула")
	}
	rest, err := held.Sub(total)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE pool_balances SET balance = $2, updated_at = NOW() WHERE pool = $1`, string(pool), rest); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось списать из пула")
	}

	for _, t := range transfers {
		if t.Amount.IsZero() {
			continue
		}
		if err := credit(ctx, tx, t.To, t.Amount); err != nil {
			return err
		}
		if err := record(ctx, tx, t.To, pool, t.Kind, t.JobID, t.Amount); err != nil {
			return err
		}
	}
	return commit(tx)
}

func (l *Ledger) Balance(ctx context.Context, account uuid.UUID) (valueobject.Amount, error) {
	var balance valueobject.Amount
	err := l.db.GetContext(ctx, &balance, `SELECT balance FROM account_balances WHERE account = $1`, account)
	if errors.Is(err, sql.ErrNoRows) {
		return valueobject.Zero, nil
	}
	if err != nil {
		return valueobject.Amount{}, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить баланс")
	}
	return balance, nil
}

func (l *Ledger) PoolBalance(ctx context.Context, pool repository.Pool) (valueobject.Amount, error) {
	var balance valueobject.Amount
	err := l.db.GetContext(ctx, &balance, `SELECT balance FROM pool_balances WHERE pool = $1`, string(pool))
	if errors.Is(err, sql.ErrNoRows) {
		return valueobject.Zero, nil
	}
	if err != nil {
		return valueobject.Amount{}, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить баланс пула")
	}
	return balance, nil
}

type entryRow struct {
	ID        int64              `db:"id"`
	Account   uuid.UUID          `db:"account"`
	Pool      string             `db:"pool"`
	Kind      string             `db:"kind"`
	JobID     int64              `db:"job_id"`
	Amount    valueobject.Amount `db:"amount"`
	CreatedAt sql.NullTime       `db:"created_at"`
}

func (l *Ledger) Entries(ctx context.Context, account uuid.UUID, limit, offset int) ([]repository.LedgerEntry, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	var rows []entryRow
	err := l.db.SelectContext(ctx, &rows, `
		SELECT id, account, pool, kind, job_id, amount, created_at
		FROM ledger_transactions WHERE account = $1 ORDER BY id DESC LIMIT $2 OFFSET $3
	`, account, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить журнал операций")
	}
	out := make([]repository.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, repository.LedgerEntry{
			ID:        uint64(row.ID),
			Account:   row.Account,
			Pool:      repository.Pool(row.Pool),
			Kind:      repository.TransferKind(row.Kind),
			JobID:     uint64(row.JobID),
			Amount:    row.Amount,
			CreatedAt: row.CreatedAt.Time.UTC(),
		})
	}
	return out, nil
}

func credit(ctx context.Context, tx *sqlx.Tx, account uuid.UUID, amount valueobject.Amount) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO account_balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = account_balances.balance + EXCLUDED.balance, updated_at = NOW()
	`, account, amount)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось зачислить средства")
	}
	return nil
}

func record(ctx context.Context, tx *sqlx.Tx, account uuid.UUID, pool repository.Pool, kind repository.TransferKind, jobID uint64, amount valueobject.Amount) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (account, pool, kind, job_id, amount) VALUES ($1, $2, $3, $4, $5)
	`, account, string(pool), string(kind), int64(jobID), amount)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось записать операцию")
	}
	return nil
}

func commit(tx *sqlx.Tx) error {
	if err := tx.Commit(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось зафиксировать транзакцию")
	}
	return nil
}
