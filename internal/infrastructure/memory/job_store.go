package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// JobStore хранит работы в памяти. Наружу отдаются только копии.
type JobStore struct {
	mu     sync.RWMutex
	lastID uint64
	jobs   map[uint64]*entity.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uint64]*entity.Job)}
}

func (s *JobStore) NextID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID, nil
}

func (s *JobStore) Create(ctx context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return apperror.New(apperror.ErrCodeConflict, "job id already used")
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *JobStore) Update(ctx context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return apperror.ErrJobNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *JobStore) FindByID(ctx context.Context, id uint64) (*entity.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *JobStore) FindByFreelancer(ctx context.Context, freelancer uuid.UUID) ([]*entity.Job, error) {
	return s.filter(func(j *entity.Job) bool { return j.IsFreelancer(freelancer) }), nil
}

func (s *JobStore) FindByClient(ctx context.Context, client uuid.UUID) ([]*entity.Job, error) {
	return s.filter(func(j *entity.Job) bool { return j.IsClient(client) }), nil
}

func (s *JobStore) List(ctx context.Context) ([]*entity.Job, error) {
	return s.filter(func(*entity.Job) bool { return true }), nil
}

func (s *JobStore) filter(match func(*entity.Job) bool) []*entity.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Job, 0)
	for _, job := range s.jobs {
		if match(job) {
			out = append(out, job.Clone())
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
