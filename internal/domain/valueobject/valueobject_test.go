package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancedao/settlement/internal/pkg/apperror"
)

func TestAmount_RejectsFractionsAndNegatives(t *testing.T) {
	_, err := ParseAmount("1.5")
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = NewAmount(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	a, err := ParseAmount("1000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000", a.String())
}

func TestAmount_SubNeverNegative(t *testing.T) {
	_, err := AmountOf(5).Sub(AmountOf(6))
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)

	rest, err := AmountOf(6).Sub(AmountOf(5))
	require.NoError(t, err)
	assert.True(t, rest.Equal(AmountOf(1)))
}

func TestAmount_JSONIsString(t *testing.T) {
	raw, err := json.Marshal(AmountOf(950_000_000))
	require.NoError(t, err)
	assert.Equal(t, `"950000000"`, string(raw))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &a))
	assert.True(t, a.Equal(AmountOf(42)))
	require.NoError(t, json.Unmarshal([]byte(`42`), &a))
	assert.True(t, a.Equal(AmountOf(42)))
	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &a))
}

func TestFeeSchedule_SplitRoundsFeeDown(t *testing.T) {
	fees := DefaultFeeSchedule()

	cases := []struct {
		payable int64
		tier    FeeTier
		fee     int64
	}{
		{1_000_000_000, FeeTierStandard, 50_000_000},
		{100, FeeTierLate, 7},
		{50, FeeTierEarly, 5},
		{19, FeeTierStandard, 0},
		{30, FeeTierStandard, 1},
	}
	for _, tc := range cases {
		fee, net := fees.Split(AmountOf(tc.payable), tc.tier)
		assert.True(t, fee.Equal(AmountOf(tc.fee)), "%d/%s fee %s", tc.payable, tc.tier, fee)
		assert.True(t, fee.Add(net).Equal(AmountOf(tc.payable)))
	}
}

func TestFeeSchedule_Validate(t *testing.T) {
	assert.NoError(t, DefaultFeeSchedule().Validate())
	assert.Error(t, FeeSchedule{StandardBps: 10001}.Validate())
	assert.Error(t, FeeSchedule{LateBps: -1}.Validate())
}

func TestJobStatus_Transitions(t *testing.T) {
	assert.True(t, JobStatusOpen.CanTransitionTo(JobStatusPending))
	assert.True(t, JobStatusDisputed.CanTransitionTo(JobStatusDelivery))
	assert.False(t, JobStatusOpen.CanTransitionTo(JobStatusConfirmed))
	for _, terminal := range []JobStatus{JobStatusConfirmed, JobStatusRefunded, JobStatusCancelled} {
		assert.True(t, terminal.IsTerminal())
		assert.False(t, terminal.CanTransitionTo(JobStatusOpen))
	}
}

func TestEnumsText(t *testing.T) {
	var c DisputeCategory
	require.NoError(t, json.Unmarshal([]byte(`"LATE_DELIVERY"`), &c))
	assert.Equal(t, DisputeLateDelivery, c)
	assert.True(t, c.AutoResolvable())
	assert.Error(t, json.Unmarshal([]byte(`"fraud"`), &c))

	var req struct {
		Category *DisputeCategory `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category":2}`), &req))
	require.NotNil(t, req.Category)
	assert.Equal(t, DisputeQualityIssue, *req.Category)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"category":9}`), &req), apperror.ErrInvalidCategory)
	assert.Error(t, json.Unmarshal([]byte(`{"category":-1}`), &req))
	require.NoError(t, json.Unmarshal([]byte(`{"category":null}`), &req))
	assert.Nil(t, req.Category)

	raw, err := json.Marshal(map[string]any{"status": JobStatusDisputed, "tier": FeeTierEarly})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"disputed","tier":"early"}`, string(raw))
}

func TestBudget_Committed(t *testing.T) {
	_, err := NewBudget(AmountOf(10), AmountOf(5))
	assert.Error(t, err)

	b, err := NewBudget(AmountOf(10), AmountOf(10))
	require.NoError(t, err)
	committed, err := b.Committed()
	require.NoError(t, err)
	assert.True(t, committed.Equal(AmountOf(10)))

	_, err = Budget{Min: AmountOf(5), Max: AmountOf(10)}.Committed()
	assert.ErrorIs(t, err, apperror.ErrInvalidBudget)
}
