package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

type jobRow struct {
	ID              int64              `db:"id"`
	Type            int16              `db:"type"`
	Client          uuid.UUID          `db:"client"`
	Freelancer      uuid.NullUUID      `db:"freelancer"`
	Title           string             `db:"title"`
	Description     string             `db:"description"`
	Deadline        time.Time          `db:"deadline"`
	TotalAmount     valueobject.Amount `db:"total_amount"`
	ConfirmedAmount valueobject.Amount `db:"confirmed_amount"`
	Withdrawn       valueobject.Amount `db:"withdrawn"`
	Deposited       valueobject.Amount `db:"deposited"`
	Refunded        valueobject.Amount `db:"refunded"`
	Funded          bool               `db:"funded"`
	IsLate          bool               `db:"is_late"`
	LatePenalty     bool               `db:"late_penalty"`
	Status          int16              `db:"status"`
	PriorStatus     int16              `db:"prior_status"`
	Milestones      []byte             `db:"milestones"`
	Requests        pq.StringArray     `db:"requests"`
	CreatedAt       time.Time          `db:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
}

type milestoneRow struct {
	Index     int                `json:"index"`
	Amount    valueobject.Amount `json:"amount"`
	Delivered bool               `json:"delivered"`
	Confirmed bool               `json:"confirmed"`
}

const jobColumns = `id, type, client, freelancer, title, description, deadline,
	total_amount, confirmed_amount, withdrawn, deposited, refunded,
	funded, is_late, late_penalty, status, prior_status, milestones, requests,
	created_at, updated_at`

func (r *JobRepository) NextID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.db.GetContext(ctx, &id, `SELECT nextval('job_ids')`); err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить номер работы")
	}
	return uint64(id), nil
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось создать работу")
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	args, err := jobArgs(job)
	if err != nil {
		return err
	}
	query := `
		UPDATE jobs
		SET type = $2, client = $3, freelancer = $4, title = $5, description = $6, deadline = $7,
		    total_amount = $8, confirmed_amount = $9, withdrawn = $10, deposited = $11, refunded = $12,
		    funded = $13, is_late = $14, late_penalty = $15, status = $16, prior_status = $17,
		    milestones = $18, requests = $19, created_at = $20, updated_at = $21
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось обновить работу")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uint64) (*entity.Job, error) {
	var row jobRow
	err := r.db.GetContext(ctx, &row, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrJobNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить работу")
	}
	return row.toEntity()
}

func (r *JobRepository) FindByFreelancer(ctx context.Context, freelancer uuid.UUID) ([]*entity.Job, error) {
	return r.selectJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE freelancer = $1 ORDER BY id`, freelancer)
}

func (r *JobRepository) FindByClient(ctx context.Context, client uuid.UUID) ([]*entity.Job, error) {
	return r.selectJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE client = $1 ORDER BY id`, client)
}

func (r *JobRepository) List(ctx context.Context) ([]*entity.Job, error) {
	return r.selectJobs(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
}

func (r *JobRepository) selectJobs(ctx context.Context, query string, args ...any) ([]*entity.Job, error) {
	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить список работ")
	}
	jobs := make([]*entity.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func jobArgs(job *entity.Job) ([]any, error) {
	milestones := make([]milestoneRow, 0, len(job.Milestones))
	for _, m := range job.Milestones {
		milestones = append(milestones, milestoneRow{Index: m.Index, Amount: m.Amount, Delivered: m.Delivered, Confirmed: m.Confirmed})
	}
	milestonesJSON, err := json.Marshal(milestones)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать этапы")
	}
	requests := make(pq.StringArray, 0, len(job.Requests))
	for _, acc := range job.Requests {
		requests = append(requests, acc.String())
	}
	freelancer := uuid.NullUUID{UUID: job.Freelancer, Valid: job.HasFreelancer()}

	return []any{
		int64(job.ID), int16(job.Type), job.Client, freelancer, job.Title, job.Description, job.Deadline,
		job.TotalAmount, job.ConfirmedAmount, job.Withdrawn, job.Deposited, job.Refunded,
		job.Funded, job.IsLate, job.LatePenalty, int16(job.Status), int16(job.PriorStatus),
		milestonesJSON, requests, job.CreatedAt, job.UpdatedAt,
	}, nil
}

func (row *jobRow) toEntity() (*entity.Job, error) {
	var milestones []milestoneRow
	if len(row.Milestones) > 0 {
		if err := json.Unmarshal(row.Milestones, &milestones); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "повреждены этапы работы")
		}
	}
	job := &entity.Job{
		ID:              uint64(row.ID),
		Type:            valueobject.JobType(row.Type),
		Client:          row.Client,
		Title:           row.Title,
		Description:     row.Description,
		Deadline:        row.Deadline.UTC(),
		TotalAmount:     row.TotalAmount,
		ConfirmedAmount: row.ConfirmedAmount,
		Withdrawn:       row.Withdrawn,
		Deposited:       row.Deposited,
		Refunded:        row.Refunded,
		Funded:          row.Funded,
		IsLate:          row.IsLate,
		LatePenalty:     row.LatePenalty,
		Status:          valueobject.JobStatus(row.Status),
		PriorStatus:     valueobject.JobStatus(row.PriorStatus),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.Freelancer.Valid {
		job.Freelancer = row.Freelancer.UUID
	}
	for _, m := range milestones {
		job.Milestones = append(job.Milestones, entity.Milestone{Index: m.Index, Amount: m.Amount, Delivered: m.Delivered, Confirmed: m.Confirmed})
	}
	for _, s := range row.Requests {
		acc, err := uuid.Parse(s)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "повреждён список заявок")
		}
		job.Requests = append(job.Requests, acc)
	}
	return job, nil
}
