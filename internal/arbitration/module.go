// Package arbitration содержит модуль споров: участники DAO голосуют по спорам,
// исход передаётся в движок эскроу через ограниченные колбэки.
package arbitration

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/events"
	"github.com/freelancedao/settlement/internal/logger"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
	"github.com/freelancedao/settlement/internal/pkg/clock"
)

// DefaultQuorum: число голосов для решения спора.
const DefaultQuorum = 2

// Escrow: то, что модулю нужно от движка эскроу.
type Escrow interface {
	GetJob(ctx context.Context, jobID uint64) (*entity.Job, error)
	OpenDispute(ctx context.Context, caller uuid.UUID, jobID uint64, initiator uuid.UUID) (*entity.Job, error)
	ResolveInFavorOfClient(ctx context.Context, caller uuid.UUID, jobID uint64) (valueobject.Amount, error)
	ResolveInFavorOfFreelancer(ctx context.Context, caller uuid.UUID, jobID uint64, tier valueobject.FeeTier) (valueobject.Amount, error)
}

type Config struct {
	Owner uuid.UUID
	// Account: адрес модуля, под которым он вызывает движок эскроу.
	Account  uuid.UUID
	Treasury uuid.UUID
	Quorum   int
	MinStake valueobject.Amount
}

type Module struct {
	mu       sync.Mutex
	disputes repository.DisputeRepository
	members  repository.MemberRepository
	ledger   repository.Ledger
	sink     events.Sink
	clock    clock.Clock
	cfg      Config
	escrow   Escrow
}

func NewModule(disputes repository.DisputeRepository, members repository.MemberRepository, ledger repository.Ledger, sink events.Sink, clk clock.Clock, cfg Config) (*Module, error) {
	if cfg.Owner == uuid.Nil || cfg.Account == uuid.Nil || cfg.Treasury == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "arbitration: owner, account and treasury are required")
	}
	if cfg.Quorum == 0 {
		cfg.Quorum = DefaultQuorum
	}
	if cfg.Quorum < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "Quorum must be positive")
	}
	if sink == nil {
		sink = events.LogSink{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Module{
		disputes: disputes,
		members:  members,
		ledger:   ledger,
		sink:     sink,
		clock:    clk,
		cfg:      cfg,
	}, nil
}

func (m *Module) Account() uuid.UUID {
	return m.cfg.Account
}

func (m *Module) Quorum() int {
	return m.cfg.Quorum
}

func (m *Module) MinStake() valueobject.Amount {
	return m.cfg.MinStake
}

// SetEscrowContract регистрирует движок эскроу. Только владелец.
func (m *Module) SetEscrowContract(caller uuid.UUID, escrow Escrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.cfg.Owner {
		return apperror.ErrOnlyOwner
	}
	if escrow == nil {
		return apperror.New(apperror.ErrCodeValidation, "escrow contract is required")
	}
	m.escrow = escrow
	return nil
}

func (m *Module) AddDaoMember(ctx context.Context, caller, member uuid.UUID) error {
	if caller != m.cfg.Owner {
		return apperror.ErrOnlyOwner
	}
	if member == uuid.Nil {
		return apperror.New(apperror.ErrCodeValidation, "member account is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Add(ctx, member)
}

func (m *Module) RemoveDaoMember(ctx context.Context, caller, member uuid.UUID) error {
	if caller != m.cfg.Owner {
		return apperror.ErrOnlyOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members.Remove(ctx, member)
}

func (m *Module) DaoMembers(ctx context.Context) ([]uuid.UUID, error) {
	return m.members.List(ctx)
}

func (m *Module) IsDaoMember(ctx context.Context, account uuid.UUID) (bool, error) {
	return m.members.Contains(ctx, account)
}

func (m *Module) GetDispute(ctx context.Context, disputeID uint64) (*entity.Dispute, error) {
	return m.disputes.FindByID(ctx, disputeID)
}

func (m *Module) ListJobDisputes(ctx context.Context, jobID uint64) ([]*entity.Dispute, error) {
	return m.disputes.FindByJob(ctx, jobID)
}

func (m *Module) publish(ctx context.Context, d *entity.Dispute, recipients []uuid.UUID, name entity.EventName, data map[string]any) {
	event := entity.Event{
		Name:       name,
		JobID:      d.JobID,
		DisputeID:  d.ID,
		Data:       data,
		Recipients: recipients,
		CreatedAt:  m.clock.Now(),
	}
	if err := m.sink.Publish(ctx, event); err != nil {
		logger.WithFields(logrus.Fields{
			"dispute_id": d.ID,
			"event":      name,
			"error":      err.Error(),
		}).Warn("arbitration: не удалось опубликовать событие")
	}
}
