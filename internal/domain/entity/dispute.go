package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/valueobject"
	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Dispute: спор по работе. Голос DAO true означает решение в пользу клиента.
type Dispute struct {
	ID           uint64
	JobID        uint64
	Initiator    uuid.UUID
	Counterparty uuid.UUID
	Title        string
	Description  string
	Amount       valueobject.Amount
	Category     valueobject.DisputeCategory
	ReasonCode   uint32
	Stake        valueobject.Amount
	Status       valueobject.DisputeStatus
	Quorum       int
	Votes        map[uuid.UUID]bool
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}

// DisputeParams: то, что передаёт инициатор спора.
type DisputeParams struct {
	JobID        uint64
	Counterparty uuid.UUID
	Title        string
	Amount       valueobject.Amount
	Category     valueobject.DisputeCategory
	Description  string
	ReasonCode   uint32
}

func NewDispute(initiator uuid.UUID, params DisputeParams, stake valueobject.Amount, quorum int, now time.Time) (*Dispute, error) {
	if !params.Category.IsValid() {
		return nil, apperror.ErrInvalidCategory
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "Dispute title is required")
	}
	if quorum <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "Quorum must be positive")
	}
	return &Dispute{
		JobID:        params.JobID,
		Initiator:    initiator,
		Counterparty: params.Counterparty,
		Title:        params.Title,
		Description:  params.Description,
		Amount:       params.Amount,
		Category:     params.Category,
		ReasonCode:   params.ReasonCode,
		Stake:        stake,
		Status:       valueobject.DisputeStatusOpen,
		Quorum:       quorum,
		Votes:        make(map[uuid.UUID]bool),
		CreatedAt:    now,
	}, nil
}

// Vote учитывает голос участника DAO. Повторный голос отклоняется.
func (d *Dispute) Vote(member uuid.UUID, forClient bool) error {
	if !d.Status.IsOpen() {
		return apperror.ErrDisputeClosed
	}
	if _, ok := d.Votes[member]; ok {
		return apperror.ErrAlreadyVoted
	}
	d.Votes[member] = forClient
	return nil
}

// Tally возвращает число голосов за клиента и за исполнителя.
func (d *Dispute) Tally() (forClient, forFreelancer int) {
	for _, v := range d.Votes {
		if v {
			forClient++
		} else {
			forFreelancer++
		}
	}
	return forClient, forFreelancer
}

// Outcome сообщает исход, если кворум набран. Голос, набирающий кворум,
// всегда решает спор: побеждает большинство, при равенстве голосов клиент
// большинства не набрал и спор решается в пользу исполнителя.
func (d *Dispute) Outcome() (decided, clientWins bool) {
	forClient, forFreelancer := d.Tally()
	if forClient+forFreelancer < d.Quorum {
		return false, false
	}
	return true, forClient > forFreelancer
}

// Parties: стороны спора, которым уходят уведомления.
func (d *Dispute) Parties() []uuid.UUID {
	return []uuid.UUID{d.Initiator, d.Counterparty}
}

func (d *Dispute) Resolve(status valueobject.DisputeStatus, now time.Time) error {
	if !d.Status.IsOpen() {
		return apperror.ErrDisputeClosed
	}
	d.Status = status
	d.ResolvedAt = &now
	return nil
}

// InitiatorWon сообщает, совпал ли исход с позицией инициатора.
func (d *Dispute) InitiatorWon(job *Job) bool {
	switch d.Status {
	case valueobject.DisputeStatusResolvedClient:
		return job.IsClient(d.Initiator)
	case valueobject.DisputeStatusResolvedFreelancer:
		return job.IsFreelancer(d.Initiator)
	case valueobject.DisputeStatusResolvedLate:
		return true
	}
	return false
}

func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Votes = make(map[uuid.UUID]bool, len(d.Votes))
	for k, v := range d.Votes {
		cp.Votes[k] = v
	}
	if d.ResolvedAt != nil {
		t := *d.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
