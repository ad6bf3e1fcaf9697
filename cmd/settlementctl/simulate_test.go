package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/valueobject"
)

func TestSimulate_Scenarios(t *testing.T) {
	cases := []struct {
		scenario string
		net      int64
		fee      int64
	}{
		{"a", 950_000_000, 50_000_000},
		{"b", 93 * hbar, 7 * hbar},
		{"c", 45 * hbar, 5 * hbar},
	}
	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			var out bytes.Buffer
			res, err := simulate(context.Background(), &out, tc.scenario)
			require.NoError(t, err, out.String())

			assert.True(t, res.Net.Equal(valueobject.AmountOf(tc.net)), "net %s", res.Net)
			assert.True(t, res.Fee.Equal(valueobject.AmountOf(tc.fee)), "fee %s", res.Fee)
			assert.True(t, res.Treasury.Equal(res.Fee), "treasury %s", res.Treasury)
			assert.Contains(t, out.String(), "balanced=true")
			require.NotEmpty(t, res.Events)
			assert.Equal(t, entity.EventJobCreated, res.Events[0])
			assert.Equal(t, entity.EventWithdrawn, res.Events[len(res.Events)-1])
		})
	}
}

func TestSimulate_UnknownScenario(t *testing.T) {
	_, err := simulate(context.Background(), &bytes.Buffer{}, "z")
	assert.Error(t, err)
}

func TestSimulateCmd_PrintsSteps(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"simulate", "--scenario", "a"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "client confirmed")
	assert.Contains(t, out.String(), "net 9.5 HBAR")
}

func TestSimulate_LateScenarioEventTrail(t *testing.T) {
	res, err := simulate(context.Background(), &bytes.Buffer{}, "b")
	require.NoError(t, err)

	assert.Contains(t, res.Events, entity.EventDisputeOpened)
	assert.Contains(t, res.Events, entity.EventDisputeResolved)
	assert.NotContains(t, res.Events, entity.EventVoteCast)
}
