package valueobject

import (
	"fmt"
	"strings"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type JobStatus uint8

const (
	JobStatusOpen JobStatus = iota
	JobStatusPending
	JobStatusDelivery
	JobStatusConfirmed
	JobStatusDisputed
	JobStatusRefunded
	JobStatusCancelled
)

var jobStatusNames = [...]string{"open", "pending", "delivery", "confirmed", "disputed", "refunded", "cancelled"}

func (s JobStatus) IsValid() bool {
	return int(s) < len(jobStatusNames)
}

// IsTerminal сообщает, что работа завершена и менять её состояние больше нельзя.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusConfirmed, JobStatusRefunded, JobStatusCancelled:
		return true
	}
	return false
}

func (s JobStatus) CanTransitionTo(newStatus JobStatus) bool {
	transitions := map[JobStatus][]JobStatus{
		JobStatusOpen:      {JobStatusPending, JobStatusCancelled, JobStatusRefunded},
		JobStatusPending:   {JobStatusDelivery, JobStatusDisputed, JobStatusConfirmed, JobStatusRefunded},
		JobStatusDelivery:  {JobStatusConfirmed, JobStatusDisputed, JobStatusRefunded},
		JobStatusDisputed:  {JobStatusConfirmed, JobStatusRefunded, JobStatusPending, JobStatusDelivery},
		JobStatusConfirmed: {},
		JobStatusRefunded:  {},
		JobStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s JobStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return jobStatusNames[s]
}

func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *JobStatus) UnmarshalText(text []byte) error {
	parsed, err := NewJobStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func NewJobStatus(status string) (JobStatus, error) {
	for i, name := range jobStatusNames {
		if strings.EqualFold(name, status) {
			return JobStatus(i), nil
		}
	}
	return 0, apperror.New(apperror.ErrCodeValidation, "unknown job status")
}

type JobType uint8

const (
	JobTypeFixed JobType = iota
	JobTypeMilestone
)

func (t JobType) String() string {
	switch t {
	case JobTypeFixed:
		return "fixed"
	case JobTypeMilestone:
		return "milestone"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t JobType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *JobType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "fixed":
		*t = JobTypeFixed
	case "milestone":
		*t = JobTypeMilestone
	default:
		return apperror.New(apperror.ErrCodeValidation, "unknown job type")
	}
	return nil
}
