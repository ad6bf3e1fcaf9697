package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// Amount: неотрицательная целая сумма в минимальных единицах (tinybar).
// Дробные значения и отрицательные результаты не допускаются.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{d: decimal.Zero}

// NewAmount проверяет, что значение целое и неотрицательное.
func NewAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() || !d.IsInteger() {
		return Amount{}, apperror.ErrInvalidAmount
	}
	return Amount{d: d.Truncate(0)}, nil
}

// AmountOf создаёт сумму из целого числа. Отрицательные значения превращаются в ноль.
func AmountOf(v int64) Amount {
	if v < 0 {
		return Zero
	}
	return Amount{d: decimal.NewFromInt(v)}
}

// ParseAmount разбирает десятичную строку ("1000000000").
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, apperror.Wrap(err, apperror.ErrCodeValidation, apperror.ErrInvalidAmount.Message)
	}
	return NewAmount(d)
}

// MustParseAmount используется для констант и тестов.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal  { return a.d }
func (a Amount) IsZero() bool              { return a.d.IsZero() }
func (a Amount) IsPositive() bool          { return a.d.IsPositive() }
func (a Amount) Equal(b Amount) bool       { return a.d.Equal(b.d) }
func (a Amount) LessThan(b Amount) bool    { return a.d.LessThan(b.d) }
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }
func (a Amount) Cmp(b Amount) int          { return a.d.Cmp(b.d) }

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub вычитает b. Результат не может стать отрицательным.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.d.LessThan(b.d) {
		return Amount{}, apperror.ErrInsufficientFunds
	}
	return Amount{d: a.d.Sub(b.d)}, nil
}

// MulBps возвращает floor(a * bps / 10000).
func (a Amount) MulBps(bps int64) Amount {
	if bps <= 0 {
		return Zero
	}
	q, _ := a.d.Mul(decimal.NewFromInt(bps)).QuoRem(decimal.NewFromInt(10000), 0)
	return Amount{d: q}
}

// Sum складывает набор сумм.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON сериализует сумму строкой, чтобы не терять точность в JS клиентах.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	parsed, err := NewAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value и Scan позволяют хранить сумму в NUMERIC колонке через sqlx.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	parsed, err := NewAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
