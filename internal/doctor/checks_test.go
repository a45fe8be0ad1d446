package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
			text, err := tc.status.MarshalText()
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, string(text))
		})
	}
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
}

func (m *mockCheck) Name() string                    { return m.name }
func (m *mockCheck) Category() string                { return m.category }
func (m *mockCheck) Run(context.Context) CheckResult { return m.result }

func mockChecks(statuses ...CheckStatus) []Check {
	checks := make([]Check, len(statuses))
	for i, s := range statuses {
		name := "check" + string(rune('a'+i))
		checks[i] = &mockCheck{name: name, category: "TEST", result: CheckResult{Name: name, Status: s}}
	}
	return checks
}

func TestRunAll(t *testing.T) {
	results := RunAll(context.Background(), mockChecks(StatusPass, StatusFail))

	assert.Len(t, results, 2)
	assert.Equal(t, "checka", results[0].Name)
	assert.Equal(t, StatusFail, results[1].Status)
}

func TestRunAllParallel_KeepsOrder(t *testing.T) {
	checks := mockChecks(StatusPass, StatusWarn, StatusFail, StatusPass)
	results := RunAllParallel(context.Background(), checks)

	for i, c := range checks {
		assert.Equal(t, c.Name(), results[i].Name)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name        string
		statuses    []CheckStatus
		want        string
		hasFailures bool
		hasIssues   bool
	}{
		{"all pass", []CheckStatus{StatusPass, StatusPass}, "Everything looks good", false, false},
		{"one warning", []CheckStatus{StatusPass, StatusWarn}, "1 issue found", false, true},
		{"mixed", []CheckStatus{StatusFail, StatusWarn, StatusFail}, "3 issues found", true, true},
		{"empty", nil, "Everything looks good", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := RunAll(context.Background(), mockChecks(tt.statuses...))
			assert.Equal(t, tt.want, Summary(results))
			assert.Equal(t, tt.hasFailures, HasFailures(results))
			assert.Equal(t, tt.hasIssues, HasIssues(results))
		})
	}
}

func TestCountByStatus(t *testing.T) {
	results := RunAll(context.Background(), mockChecks(StatusPass, StatusPass, StatusWarn))
	counts := CountByStatus(results)
	assert.Equal(t, 2, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Zero(t, counts[StatusFail])
}
