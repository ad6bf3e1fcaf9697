package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type DisputeStore struct {
	mu       sync.RWMutex
	lastID   uint64
	disputes map[uint64]*entity.Dispute
}

func NewDisputeStore() *DisputeStore {
	return &DisputeStore{disputes: make(map[uint64]*entity.Dispute)}
}

func (s *DisputeStore) NextID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID, nil
}

func (s *DisputeStore) Create(ctx context.Context, dispute *entity.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[dispute.ID]; ok {
		return apperror.New(apperror.ErrCodeConflict, "dispute id already used")
	}
	s.disputes[dispute.ID] = dispute.Clone()
	return nil
}

func (s *DisputeStore) Update(ctx context.Context, dispute *entity.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[dispute.ID]; !ok {
		return apperror.ErrDisputeNotFound
	}
	s.disputes[dispute.ID] = dispute.Clone()
	return nil
}

func (s *DisputeStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[id]; !ok {
		return apperror.ErrDisputeNotFound
	}
	delete(s.disputes, id)
	return nil
}

func (s *DisputeStore) FindByID(ctx context.Context, id uint64) (*entity.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	return d.Clone(), nil
}

func (s *DisputeStore) FindByJob(ctx context.Context, jobID uint64) ([]*entity.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Dispute, 0)
	for _, d := range s.disputes {
		if d.JobID == jobID {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

// MemberStore: состав DAO.
type MemberStore struct {
	mu      sync.RWMutex
	members map[uuid.UUID]struct{}
}

func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[uuid.UUID]struct{})}
}

func (s *MemberStore) Add(ctx context.Context, member uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member]; ok {
		return apperror.ErrAlreadyMember
	}
	s.members[member] = struct{}{}
	return nil
}

func (s *MemberStore) Remove(ctx context.Context, member uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member]; !ok {
		return apperror.ErrMemberNotFound
	}
	delete(s.members, member)
	return nil
}

func (s *MemberStore) Contains(ctx context.Context, member uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[member]
	return ok, nil
}

func (s *MemberStore) List(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].String() < out[k].String() })
	return out, nil
}
