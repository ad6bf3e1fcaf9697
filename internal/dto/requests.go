package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

// CreateFixedJobRequest: публикация работы с фиксированной оплатой.
// Value > 0 означает, что средства переводятся вместе с созданием.
type CreateFixedJobRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	BudgetMin   valueobject.Amount `json:"budget_min"`
	BudgetMax   valueobject.Amount `json:"budget_max"`
	Deadline    time.Time          `json:"deadline" binding:"required"`
	Value       valueobject.Amount `json:"value"`
}

type CreateMilestoneJobRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	Milestones  []valueobject.Amount `json:"milestones" binding:"required,min=1"`
	Deadline    time.Time            `json:"deadline" binding:"required"`
	Value       valueobject.Amount   `json:"value"`
}

type FundJobRequest struct {
	Value valueobject.Amount `json:"value"`
}

type ApproveProviderRequest struct {
	Freelancer uuid.UUID `json:"freelancer"`
}

type MarkDeliveryRequest struct {
	MilestoneIndex int `json:"milestone_index"`
}

type BatchWithdrawRequest struct {
	JobIDs []uint64 `json:"job_ids" binding:"required,min=1"`
}

// CreateDisputeRequest: открытие спора. Counterparty можно не указывать,
// тогда берётся второй участник работы.
type CreateDisputeRequest struct {
	JobID        uint64                       `json:"job_id" binding:"required"`
	Counterparty uuid.UUID                    `json:"counterparty"`
	Title        string                       `json:"title" binding:"required"`
	Amount       valueobject.Amount           `json:"amount"`
	Category     *valueobject.DisputeCategory `json:"category" binding:"required"`
	Description  string                       `json:"description"`
	ReasonCode   uint32                       `json:"reason_code"`
	Stake        valueobject.Amount           `json:"stake"`
}

type VoteRequest struct {
	VoteForClient *bool `json:"vote_for_client" binding:"required"`
}

type AccountRequest struct {
	Account uuid.UUID `json:"account"`
}

type TopUpRequest struct {
	Amount valueobject.Amount `json:"amount"`
}
