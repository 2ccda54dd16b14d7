package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"biasaudit/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAuditCommand_Table(t *testing.T) {
	out, err := runCLI(t, "audit", "--n", "200", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "MODEL FAIRNESS REPORT")
	assert.Contains(t, out, "Source: generated (200 records)")
	assert.Contains(t, out, "GROUP")
	assert.NotContains(t, out, "Ground truth is simulated")
}

func TestAuditCommand_JSONDimension(t *testing.T) {
	out, err := runCLI(t, "audit", "--n", "150", "--dimension", "gender", "--json")
	require.NoError(t, err)

	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Dimensions, 1)
	assert.Equal(t, "gender", string(report.Dimensions[0].Dimension))
	assert.Equal(t, "Male", report.Dimensions[0].Reference)
	assert.Equal(t, 150, report.KPIs.Records)
}

func TestAuditCommand_InvalidInput(t *testing.T) {
	_, err := runCLI(t, "audit", "--dimension", "income")
	assert.ErrorContains(t, err, "unknown dimension")

	_, err = runCLI(t, "audit", "--n", "0")
	assert.ErrorContains(t, err, "--n must be positive")
}

func TestGenerateThenAuditFile(t *testing.T) {
	out, err := runCLI(t, "generate", "--n", "120", "--seed", "9")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 121)
	assert.Equal(t, "id,race,gender,ageGroup,riskScore", lines[0])

	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	out, err = runCLI(t, "audit", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Source: scores.csv (120 records)")
	assert.Contains(t, out, "Ground truth is simulated")
}

func TestHistoryCommand_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "archive.db")

	out, err := runCLI(t, "migrate", "--driver", "sqlite3", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Archive schema at version 1.0.0")

	out, err = runCLI(t, "history", "--driver", "sqlite3", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "No archived analyses.")
}

func TestMigrateCommand_RequiresDSN(t *testing.T) {
	_, err := runCLI(t, "migrate", "--dsn", "")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}
