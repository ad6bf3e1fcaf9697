package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
)

// JobRepository хранит работы. FindByID возвращает apperror.ErrJobNotFound,
// если работы нет.
type JobRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uint64) (*entity.Job, error)
	FindByFreelancer(ctx context.Context, freelancer uuid.UUID) ([]*entity.Job, error)
	FindByClient(ctx context.Context, client uuid.UUID) ([]*entity.Job, error)
	List(ctx context.Context) ([]*entity.Job, error)
}

// DisputeRepository хранит споры. FindByID возвращает apperror.ErrDisputeNotFound.
// Delete снимает спор, который так и не был открыт в эскроу.
type DisputeRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, dispute *entity.Dispute) error
	Update(ctx context.Context, dispute *entity.Dispute) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*entity.Dispute, error)
	FindByJob(ctx context.Context, jobID uint64) ([]*entity.Dispute, error)
}

// MemberRepository хранит состав DAO.
type MemberRepository interface {
	Add(ctx context.Context, member uuid.UUID) error
	Remove(ctx context.Context, member uuid.UUID) error
	Contains(ctx context.Context, member uuid.UUID) (bool, error)
	List(ctx context.Context) ([]uuid.UUID, error)
}

// EventJournal: журнал событий в порядке фиксации. Append назначает Seq.
type EventJournal interface {
	Append(ctx context.Context, event *entity.Event) error
	ListByJob(ctx context.Context, jobID uint64, limit, offset int) ([]entity.Event, error)
}
