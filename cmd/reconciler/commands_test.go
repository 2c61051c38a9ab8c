package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiperlive/reconciler/internal/domain"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "watch", "status", "ingest", "show"}, names)

	for _, flag := range []string{"config", "env", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestIngestCommand_RejectsMalformedFile(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetIn(strings.NewReader(`{"not": "an array"}`))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"ingest", "-"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse snapshot file")
}

func TestShowCommand_RequiresID(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show"})

	assert.Error(t, cmd.Execute())
}

func TestRunReport(t *testing.T) {
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	result := &domain.RunResult{
		RunID:      "01J9ZQ8X3W5R8T6Y2M4N7P0K19",
		Discovered: 3,
		Succeeded:  1,
		Skipped:    1,
		Failures: []domain.UnitFailure{
			{Key: domain.UnitKey{ExternalProductID: "X2", SourceName: "duga"}, Err: errors.New("deadlock detected")},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, runReport(result)))

	var decoded struct {
		RunID      string          `json:"run_id"`
		Discovered int             `json:"discovered"`
		Succeeded  int             `json:"succeeded"`
		Skipped    int             `json:"skipped"`
		Failures   []failureReport `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, result.RunID, decoded.RunID)
	assert.Equal(t, 3, decoded.Discovered)
	assert.Equal(t, 1, decoded.Succeeded)
	assert.Equal(t, 1, decoded.Skipped)
	assert.Equal(t, []failureReport{
		{ExternalProductID: "X2", SourceName: "duga", Error: "deadlock detected"},
	}, decoded.Failures)
}

func TestRunReport_NoFailuresRendersEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, runReport(&domain.RunResult{RunID: "r"})))
	assert.Contains(t, buf.String(), `"failures": []`)
}
