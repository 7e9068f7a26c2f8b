package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhaseSummaryAggregate(t *testing.T) {
	t.Parallel()

	t.Run("all success", func(t *testing.T) {
		t.Parallel()
		s := PhaseSummary{Phase: PhaseProvision, Results: []PluginResult{
			{Plugin: "web-app", Status: StatusSuccess},
			{Plugin: "bot-service", Status: StatusSuccess},
		}}
		require.Equal(t, AggregateSuccess, s.Aggregate())
		require.NoError(t, s.FirstError())
	})

	t.Run("mixed outcome is partial", func(t *testing.T) {
		t.Parallel()
		bootErr := errors.New("quota exceeded")
		s := PhaseSummary{Phase: PhaseProvision, Results: []PluginResult{
			{Plugin: "web-app", Status: StatusSuccess},
			{Plugin: "bot-service", Status: StatusFailed, Error: bootErr},
			{Plugin: "key-vault", Status: StatusFailed, Error: errors.New("later")},
		}}
		require.Equal(t, AggregatePartial, s.Aggregate())
		require.Equal(t, bootErr, s.FirstError())
		require.Equal(t, []string{"bot-service", "key-vault"}, s.FailedPlugins())
	})

	t.Run("all failed", func(t *testing.T) {
		t.Parallel()
		s := PhaseSummary{Phase: PhaseConfigure, Results: []PluginResult{
			{Plugin: "sql-database", Status: StatusFailed, Error: errors.New("firewall")},
		}}
		require.Equal(t, AggregateFailure, s.Aggregate())
	})

	t.Run("skips do not count as participants", func(t *testing.T) {
		t.Parallel()
		s := PhaseSummary{Phase: PhaseConfigure, Results: []PluginResult{
			{Plugin: "static-storage", Status: StatusSkipped},
		}}
		require.Equal(t, AggregateSuccess, s.Aggregate())
	})

	t.Run("empty phase is success", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, AggregateSuccess, PhaseSummary{Phase: PhaseDeploy}.Aggregate())
	})
}
