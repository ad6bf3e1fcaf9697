package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

// ErrorResponse: стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MilestoneResponse struct {
	Index     int                `json:"index"`
	Amount    valueobject.Amount `json:"amount"`
	Delivered bool               `json:"delivered"`
	Confirmed bool               `json:"confirmed"`
}

type JobResponse struct {
	ID              uint64                `json:"id"`
	Type            valueobject.JobType   `json:"type"`
	Client          uuid.UUID             `json:"client"`
	Freelancer      *uuid.UUID            `json:"freelancer,omitempty"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Deadline        time.Time             `json:"deadline"`
	TotalAmount     valueobject.Amount    `json:"total_amount"`
	ConfirmedAmount valueobject.Amount    `json:"confirmed_amount"`
	Withdrawn       valueobject.Amount    `json:"withdrawn"`
	EscrowBalance   valueobject.Amount    `json:"escrow_balance"`
	Funded          bool                  `json:"funded"`
	IsLate          bool                  `json:"is_late"`
	LatePenalty     bool                  `json:"late_penalty"`
	Status          valueobject.JobStatus `json:"status"`
	Milestones      []MilestoneResponse   `json:"milestones,omitempty"`
	Requests        []uuid.UUID           `json:"requests"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func NewJobResponse(job *entity.Job) JobResponse {
	resp := JobResponse{
		ID:              job.ID,
		Type:            job.Type,
		Client:          job.Client,
		Title:           job.Title,
		Description:     job.Description,
		Deadline:        job.Deadline,
		TotalAmount:     job.TotalAmount,
		ConfirmedAmount: job.ConfirmedAmount,
		Withdrawn:       job.Withdrawn,
		EscrowBalance:   job.EscrowBalance(),
		Funded:          job.Funded,
		IsLate:          job.IsLate,
		LatePenalty:     job.LatePenalty,
		Status:          job.Status,
		Requests:        make([]uuid.UUID, 0, len(job.Requests)),
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	if job.HasFreelancer() {
		freelancer := job.Freelancer
		resp.Freelancer = &freelancer
	}
	for _, m := range job.Milestones {
		resp.Milestones = append(resp.Milestones, NewMilestoneResponse(m))
	}
	resp.Requests = append(resp.Requests, job.Requests...)
	return resp
}

func NewMilestoneResponse(m entity.Milestone) MilestoneResponse {
	return MilestoneResponse{Index: m.Index, Amount: m.Amount, Delivered: m.Delivered, Confirmed: m.Confirmed}
}

func NewJobListResponse(jobs []*entity.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, NewJobResponse(job))
	}
	return out
}

type DisputeResponse struct {
	ID            uint64                      `json:"id"`
	JobID         uint64                      `json:"job_id"`
	Initiator     uuid.UUID                   `json:"initiator"`
	Counterparty  uuid.UUID                   `json:"counterparty"`
	Title         string                      `json:"title"`
	Description   string                      `json:"description"`
	Amount        valueobject.Amount          `json:"amount"`
	Category      valueobject.DisputeCategory `json:"category"`
	ReasonCode    uint32                      `json:"reason_code"`
	Stake         valueobject.Amount          `json:"stake"`
	Status        valueobject.DisputeStatus   `json:"status"`
	Quorum        int                         `json:"quorum"`
	VotesClient   int                         `json:"votes_for_client"`
	VotesProvider int                         `json:"votes_for_freelancer"`
	CreatedAt     time.Time                   `json:"created_at"`
	ResolvedAt    *time.Time                  `json:"resolved_at,omitempty"`
}

func NewDisputeResponse(d *entity.Dispute) DisputeResponse {
	forClient, forFreelancer := d.Tally()
	return DisputeResponse{
		ID:            d.ID,
		JobID:         d.JobID,
		Initiator:     d.Initiator,
		Counterparty:  d.Counterparty,
		Title:         d.Title,
		Description:   d.Description,
		Amount:        d.Amount,
		Category:      d.Category,
		ReasonCode:    d.ReasonCode,
		Stake:         d.Stake,
		Status:        d.Status,
		Quorum:        d.Quorum,
		VotesClient:   forClient,
		VotesProvider: forFreelancer,
		CreatedAt:     d.CreatedAt,
		ResolvedAt:    d.ResolvedAt,
	}
}

type BalanceResponse struct {
	Account uuid.UUID          `json:"account"`
	Balance valueobject.Amount `json:"balance"`
}

type LedgerEntryResponse struct {
	ID        uint64                  `json:"id"`
	Pool      repository.Pool         `json:"pool,omitempty"`
	Kind      repository.TransferKind `json:"kind"`
	JobID     uint64                  `json:"job_id,omitempty"`
	Amount    valueobject.Amount      `json:"amount"`
	CreatedAt time.Time               `json:"created_at"`
}

func NewLedgerEntriesResponse(entries []repository.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:        e.ID,
			Pool:      e.Pool,
			Kind:      e.Kind,
			JobID:     e.JobID,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// TokenResponse выдаётся dev эндпоинтом и CLI.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
