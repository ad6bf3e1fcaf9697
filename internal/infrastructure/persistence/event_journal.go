package persistence

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type EventJournal struct {
	db *sqlx.DB
}

func NewEventJournal(db *sqlx.DB) *EventJournal {
	return &EventJournal{db: db}
}

type eventRow struct {
	Seq       int64     `db:"seq"`
	Name      string    `db:"name"`
	JobID     int64     `db:"job_id"`
	DisputeID int64     `db:"dispute_id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

func (j *EventJournal) Append(ctx context.Context, event *entity.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать событие")
	}
	if event.Data == nil {
		data = []byte(`{}`)
	}
	var seq int64
	err = j.db.GetContext(ctx, &seq, `
		INSERT INTO events (name, job_id, dispute_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, string(event.Name), int64(event.JobID), int64(event.DisputeID), data, event.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось записать событие")
	}
	event.Seq = uint64(seq)
	return nil
}

func (j *EventJournal) ListByJob(ctx context.Context, jobID uint64, limit, offset int) ([]entity.Event, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	var rows []eventRow
	err := j.db.SelectContext(ctx, &rows, `
		SELECT seq, name, job_id, dispute_id, data, created_at
		FROM events WHERE job_id = $1 ORDER BY seq LIMIT $2 OFFSET $3
	`, int64(jobID), limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "не удалось получить события")
	}
	out := make([]entity.Event, 0, len(rows))
	for _, row := range rows {
		var data map[string]any
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabase, "повреждены данные события")
		}
		out = append(out, entity.Event{
			Seq:       uint64(row.Seq),
			Name:      entity.EventName(row.Name),
			JobID:     uint64(row.JobID),
			DisputeID: uint64(row.DisputeID),
			Data:      data,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
