package valueobject

import (
	"fmt"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

type Budget struct {
	Min Amount
	Max Amount
}

func NewBudget(min, max Amount) (Budget, error) {
	if min.GreaterThan(max) {
		return Budget{}, apperror.New(apperror.ErrCodeValidation, "minimum budget cannot exceed maximum")
	}
	return Budget{Min: min, Max: max}, nil
}

// Committed сводит бюджет к одной сумме. Диапазон для фиксированной работы не поддерживается.
func (b Budget) Committed() (Amount, error) {
	if !b.Min.Equal(b.Max) {
		return Amount{}, apperror.ErrInvalidBudget
	}
	if !b.Min.IsPositive() {
		return Amount{}, apperror.ErrInvalidAmount
	}
	return b.Min, nil
}

func (b Budget) IsInRange(amount Amount) bool {
	return !amount.LessThan(b.Min) && !amount.GreaterThan(b.Max)
}

func (b Budget) String() string {
	return fmt.Sprintf("%s - %s", b.Min, b.Max)
}
