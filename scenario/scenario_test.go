package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/riskmanagement123/amortize"
)

func TestLoadConfigurationYAML(t *testing.T) {
	s, err := LoadConfiguration(filepath.Join("testdata", "annuity_fixed.yml"))
	require.NoError(t, err)

	assert.Equal(t, "annuity", s.Loan.Method)
	assert.Equal(t, 0.036, s.Loan.AnnualRate)
	assert.Equal(t, 1500000.0, s.Loan.Principal)
	assert.Equal(t, 360, s.Loan.Term)
	assert.Equal(t, "20250420", s.Loan.Start)
	require.Len(t, s.Prepayments, 5)
	assert.Equal(t, Prepayment{Date: "20260722", Amount: 200000, Mode: "fixed"}, s.Prepayments[0])
}

func TestLoadConfigurationWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario")
	require.NoError(t, os.WriteFile(path, []byte("loan:\n  method: linear\n  principal: 12000\n  term: 12\n  start: \"20250101\"\n"), 0o600))

	s, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Loan.Term)
	assert.Empty(t, s.Prepayments)
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AMORTIZE_LOAN_PRINCIPAL", "1000000")

	s, err := LoadConfiguration(filepath.Join("testdata", "annuity_fixed.yml"))
	require.NoError(t, err)
	assert.Equal(t, 1000000.0, s.Loan.Principal)
}

func TestRunAnnuityKeepTerm(t *testing.T) {
	s, err := LoadConfiguration(filepath.Join("testdata", "annuity_fixed.yml"))
	require.NoError(t, err)

	calc, results, err := s.Run(zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, results, 5)

	// applied in date order regardless of file order
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 22}, results[0].Date)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.July, Day: 22}, results[4].Date)
	for _, r := range results {
		assert.Equal(t, amortize.PrepayRescheduled, r.Outcome)
		assert.Equal(t, amortize.PrepayPaymentReduction, r.Strategy)
	}

	records := calc.Schedule()
	require.Len(t, records, 360)
	assert.Equal(t, "20550420", records[359].Key())
	assert.Len(t, calc.Prepayments(), 5)
}

func TestRunLinearShortenTerm(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "linear_short.json"))
	require.NoError(t, err)
	defer f.Close()

	s, err := Read(f, "json")
	require.NoError(t, err)

	calc, results, err := s.Run(nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, amortize.PrepayTermReduction, r.Strategy)
		assert.Less(t, r.PeriodsAfter, r.PeriodsBefore)
	}
	records := calc.Schedule()
	assert.Less(t, len(records), 360)
	assert.True(t, records[len(records)-1].Remaining.IsZero())
}

func TestRunDefaultsStartToToday(t *testing.T) {
	s, err := Read(strings.NewReader("loan:\n  method: linear\n  annual_rate: 0.036\n  principal: 12000\n  term: 12\n"), "yaml")
	require.NoError(t, err)

	calc, _, err := s.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, amortize.Today(), calc.Contract().Start)
}

func TestValidate(t *testing.T) {
	s := &Scenario{
		Loan: Loan{Method: "balloon", AnnualRate: -0.01, Principal: 0, Term: 0, Start: "2025-04-20"},
		Prepayments: []Prepayment{
			{Date: "20250230", Amount: 100},
			{Date: "20250301", Amount: 0, Mode: "half"},
		},
	}
	err := s.Validate()
	require.Error(t, err)

	assert.True(t, errors.Is(err, amortize.ErrUnsupportedRepayType))
	assert.True(t, errors.Is(err, amortize.ErrInvalidDate))
	assert.True(t, errors.Is(err, amortize.ErrInvalidTerm))
	assert.True(t, errors.Is(err, amortize.ErrInvalidPrincipal))
	assert.True(t, errors.Is(err, amortize.ErrInvalidRate))
	assert.True(t, errors.Is(err, amortize.ErrUnsupportedPrepay))
	for _, field := range []string{"loan.method", "loan.start", "prepayments[0].date", "prepayments[1].amount", "prepayments[1].mode"} {
		assert.Contains(t, err.Error(), field)
	}

	_, _, err = s.Run(nil)
	assert.Error(t, err)
}

func TestPrepaymentStrategy(t *testing.T) {
	tests := []struct {
		mode string
		want amortize.PrepayStrategy
	}{
		{"", amortize.PrepayTermReduction},
		{"short", amortize.PrepayTermReduction},
		{"Short", amortize.PrepayTermReduction},
		{"fixed", amortize.PrepayPaymentReduction},
		{"PAYMENT_REDUCTION", amortize.PrepayPaymentReduction},
	}
	for _, tt := range tests {
		got, err := Prepayment{Mode: tt.mode}.strategy()
		require.NoError(t, err, tt.mode)
		assert.Equal(t, tt.want, got, tt.mode)
	}
}
