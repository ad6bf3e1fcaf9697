package valueobject

import (
	"fmt"
	"strings"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

// FeeTier определяет, какой процент удерживается с выплаты фрилансеру.
type FeeTier uint8

const (
	FeeTierStandard FeeTier = iota
	FeeTierLate
	FeeTierEarly
)

const bpsDenominator = 10000

// FeeSchedule хранит ставки в базисных пунктах для каждого уровня.
type FeeSchedule struct {
	StandardBps int64 `yaml:"standard_bps" json:"standard_bps"`
	LateBps     int64 `yaml:"late_bps" json:"late_bps"`
	EarlyBps    int64 `yaml:"early_bps" json:"early_bps"`
}

// DefaultFeeSchedule: 5% обычная выплата, 7% после просрочки, 10% досрочная.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{StandardBps: 500, LateBps: 700, EarlyBps: 1000}
}

func (f FeeSchedule) Validate() error {
	for _, bps := range []int64{f.StandardBps, f.LateBps, f.EarlyBps} {
		if bps < 0 || bps > bpsDenominator {
			return apperror.New(apperror.ErrCodeValidation, "fee must be between 0 and 10000 bps")
		}
	}
	return nil
}

func (f FeeSchedule) Bps(tier FeeTier) int64 {
	switch tier {
	case FeeTierLate:
		return f.LateBps
	case FeeTierEarly:
		return f.EarlyBps
	default:
		return f.StandardBps
	}
}

// Split делит сумму к выплате на комиссию и чистую выплату.
// Комиссия округляется вниз, поэтому fee + net всегда равно payable.
func (f FeeSchedule) Split(payable Amount, tier FeeTier) (fee, net Amount) {
	fee = payable.MulBps(f.Bps(tier))
	net, _ = payable.Sub(fee)
	return fee, net
}

func (t FeeTier) IsValid() bool {
	return t <= FeeTierEarly
}

func (t FeeTier) String() string {
	switch t {
	case FeeTierStandard:
		return "standard"
	case FeeTierLate:
		return "late"
	case FeeTierEarly:
		return "early"
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

func (t FeeTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *FeeTier) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "standard":
		*t = FeeTierStandard
	case "late":
		*t = FeeTierLate
	case "early":
		*t = FeeTierEarly
	default:
		return apperror.ErrInvalidFeeTier
	}
	return nil
}
