package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// DisputeCategory: причина спора. В JSON принимается имя ("quality_issue")
// или числовой код (2), отдаётся всегда имя.
type DisputeCategory uint8

const (
	DisputeLateDelivery DisputeCategory = iota
	DisputeNonDelivery
	DisputeQualityIssue
	DisputeScopeChange
	DisputeOther
)

var disputeCategoryNames = [...]string{"late_delivery", "non_delivery", "quality_issue", "scope_change", "other"}

func (c DisputeCategory) IsValid() bool {
	return int(c) < len(disputeCategoryNames)
}

// AutoResolvable сообщает, что спор закрывается без голосования DAO.
func (c DisputeCategory) AutoResolvable() bool {
	return c == DisputeLateDelivery
}

func (c DisputeCategory) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return disputeCategoryNames[c]
}

func (c DisputeCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *DisputeCategory) UnmarshalText(text []byte) error {
	for i, name := range disputeCategoryNames {
		if strings.EqualFold(name, string(text)) {
			*c = DisputeCategory(i)
			return nil
		}
	}
	return apperror.ErrInvalidCategory
}

func (c *DisputeCategory) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var code uint8
	if err := json.Unmarshal(data, &code); err == nil {
		if !DisputeCategory(code).IsValid() {
			return apperror.ErrInvalidCategory
		}
		*c = DisputeCategory(code)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return apperror.ErrInvalidCategory
	}
	return c.UnmarshalText([]byte(name))
}

type DisputeStatus uint8

const (
	DisputeStatusOpen DisputeStatus = iota
	DisputeStatusResolvedClient
	DisputeStatusResolvedFreelancer
	DisputeStatusResolvedLate
)

func (s DisputeStatus) IsOpen() bool {
	return s == DisputeStatusOpen
}

func (s DisputeStatus) String() string {
	switch s {
	case DisputeStatusOpen:
		return "open"
	case DisputeStatusResolvedClient:
		return "resolved_client"
	case DisputeStatusResolvedFreelancer:
		return "resolved_freelancer"
	case DisputeStatusResolvedLate:
		return "resolved_late"
	}
	return fmt.Sprintf("dispute_status(%d)", uint8(s))
}

func (s DisputeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
