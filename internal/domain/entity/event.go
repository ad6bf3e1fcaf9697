package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventName string

// События для внешних индексаторов.
const (
	EventJobCreated         EventName = "JobCreated"
	EventJobFunded          EventName = "JobFunded"
	EventProviderRequested  EventName = "ProviderRequested"
	EventProviderApproved   EventName = "ProviderApproved"
	EventDeliveryMarked     EventName = "DeliveryMarked"
	EventFixedJobConfirmed  EventName = "FixedJobConfirmed"
	EventMilestoneConfirmed EventName = "MilestoneConfirmed"
	EventWithdrawn          EventName = "Withdrawn"
	EventJobCancelled       EventName = "JobCancelled"
	EventRefundIssued       EventName = "RefundIssued"
	EventJobDisputed        EventName = "JobDisputed"
	EventDisputeSettled     EventName = "DisputeSettled"
	EventDisputeOpened      EventName = "DisputeOpened"
	EventVoteCast           EventName = "VoteCast"
	EventDisputeResolved    EventName = "DisputeResolved"
)

// Event: запись о зафиксированном изменении. Recipients: аккаунты,
// которым событие отправляется по вебсокету; в журнал они не пишутся.
type Event struct {
	Seq        uint64         `json:"seq"`
	Name       EventName      `json:"name"`
	JobID      uint64         `json:"job_id"`
	DisputeID  uint64         `json:"dispute_id,omitempty"`
	Data       map[string]any `json:"data"`
	Recipients []uuid.UUID    `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
}
