package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

type disputeRow struct {
	ID           int64              `db:"id"`
	JobID        int64              `db:"job_id"`
	Initiator    uuid.UUID          `db:"initiator"`
	Counterparty uuid.UUID          `db:"counterparty"`
	Title        string             `db:"title"`
	Description  string             `db:"description"`
	Amount       valueobject.Amount `db:"amount"`
	Category     int16              `db:"category"`
	ReasonCode   int64              `db:"reason_code"`
	Stake        valueobject.Amount `db:"stake"`
	Status       int16              `db:"status"`
	Quorum       int                `db:"quorum"`
	Votes        []byte             `db:"votes"`
	CreatedAt    time.Time          `db:"created_at"`
	ResolvedAt   sql.NullTime       `db:"resolved_at"`
}

const disputeColumns = `id, job_id, initiator, counterparty, title, description, amount,
	category, reason_code, stake, status, quorum, votes, created_at, resolved_at`

func (r *DisputeRepository) NextID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.db.GetContext(ctx, &id, `SELECT nextval('dispute_ids')`); err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить номер спора")
	}
	return uint64(id), nil
}

func (r *DisputeRepository) Create(ctx context.Context, d *entity.Dispute) error {
	votes, err := json.Marshal(d.Votes)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать голоса")
	}
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(ctx, query,
		int64(d.ID), int64(d.JobID), d.Initiator, d.Counterparty, d.Title, d.Description, d.Amount,
		int16(d.Category), int64(d.ReasonCode), d.Stake, int16(d.Status), d.Quorum, votes,
		d.CreatedAt, nullTime(d.ResolvedAt),
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось создать спор")
	}
	return nil
}

// Update сохраняет изменяемую часть спора: статус и голоса.
func (r *DisputeRepository) Update(ctx context.Context, d *entity.Dispute) error {
	votes, err := json.Marshal(d.Votes)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать голоса")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, votes = $3, resolved_at = $4 WHERE id = $1
	`, int64(d.ID), int16(d.Status), votes, nullTime(d.ResolvedAt))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось обновить спор")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrDisputeNotFound
	}
	return nil
}

func (r *DisputeRepository) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM disputes WHERE id = $1`, int64(id))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось удалить спор")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrDisputeNotFound
	}
	return nil
}

func (r *DisputeRepository) FindByID(ctx context.Context, id uint64) (*entity.Dispute, error) {
	var row disputeRow
	err := r.db.GetContext(ctx, &row, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrDisputeNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить спор")
	}
	return row.toEntity()
}

func (r *DisputeRepository) FindByJob(ctx context.Context, jobID uint64) ([]*entity.Dispute, error) {
	var rows []disputeRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+disputeColumns+` FROM disputes WHERE job_id = $1 ORDER BY id`, int64(jobID))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить споры по работе")
	}
	out := make([]*entity.Dispute, 0, len(rows))
	for i := range rows {
		d, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (row *disputeRow) toEntity() (*entity.Dispute, error) {
	votes := make(map[uuid.UUID]bool)
	if len(row.Votes) > 0 {
		if err := json.Unmarshal(row.Votes, &votes); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "повреждены голоса по спору")
		}
	}
	d := &entity.Dispute{
		ID:           uint64(row.ID),
		JobID:        uint64(row.JobID),
		Initiator:    row.Initiator,
		Counterparty: row.Counterparty,
		Title:        row.Title,
		Description:  row.Description,
		Amount:       row.Amount,
		Category:     valueobject.DisputeCategory(row.Category),
		ReasonCode:   uint32(row.ReasonCode),
		Stake:        row.Stake,
		Status:       valueobject.DisputeStatus(row.Status),
		Quorum:       row.Quorum,
		Votes:        votes,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if row.ResolvedAt.Valid {
		t := row.ResolvedAt.Time.UTC()
		d.ResolvedAt = &t
	}
	return d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// MemberRepository хранит состав DAO в таблице dao_members.
type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Add(ctx context.Context, member uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO dao_members (account) VALUES ($1) ON CONFLICT DO NOTHING`, member)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось добавить участника DAO")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrAlreadyMember
	}
	return nil
}

func (r *MemberRepository) Remove(ctx context.Context, member uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dao_members WHERE account = $1`, member)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось удалить участника DAO")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) Contains(ctx context.Context, member uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM dao_members WHERE account = $1)`, member)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось проверить участника DAO")
	}
	return exists, nil
}

func (r *MemberRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	var members []uuid.UUID
	if err := r.db.SelectContext(ctx, &members, `SELECT account FROM dao_members ORDER BY account::text`); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить состав DAO")
	}
	return members, nil
}
