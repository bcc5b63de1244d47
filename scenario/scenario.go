// Package scenario loads a loan contract plus an ordered list of prepayments
// from a config file and replays them through an amortize.Calculator.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/riskmanagement123/amortize"
)

// EnvPrefix is the prefix for environment overrides, e.g. AMORTIZE_LOAN_PRINCIPAL.
const EnvPrefix = "AMORTIZE"

// Scenario holds one loan and the prepayments to apply to it.
type Scenario struct {
	Loan        Loan         `mapstructure:"loan" json:"loan"`
	Prepayments []Prepayment `mapstructure:"prepayments" json:"prepayments"`
}

// Loan mirrors the calculator inputs. Start is YYYYMMDD; empty means today.
type Loan struct {
	Method     string  `mapstructure:"method" json:"method"`
	AnnualRate float64 `mapstructure:"annual_rate" json:"annual_rate"`
	Principal  float64 `mapstructure:"principal" json:"principal"`
	Term       int     `mapstructure:"term" json:"term"`
	Start      string  `mapstructure:"start" json:"start"`
}

// Prepayment is one early payment. Mode is "short" (shorten the term) or
// "fixed" (keep the term, lower the payment); empty means "short".
type Prepayment struct {
	Date   string  `mapstructure:"date" json:"date"`
	Amount float64 `mapstructure:"amount" json:"amount"`
	Mode   string  `mapstructure:"mode" json:"mode"`
}

// LoadConfiguration reads a YAML (or any viper supported) scenario file.
func LoadConfiguration(path string) (*Scenario, error) {
	v := newViper()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return decode(v)
}

// Read parses a scenario of the given config type ("yaml", "json", ...).
func Read(r io.Reader, configType string) (*Scenario, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Scenario, error) {
	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode scenario: %w", err)
	}
	return &s, nil
}

// Validate checks the inputs the way the entry form did: canonical dates,
// positive amounts and a known repayment method and prepayment mode.
func (s *Scenario) Validate() error {
	var errs []error
	if _, err := amortize.ParseRepayType(s.Loan.Method); err != nil {
		errs = append(errs, fmt.Errorf("loan.method %q: %w", s.Loan.Method, err))
	}
	if s.Loan.Start != "" {
		if _, err := amortize.ParseDateKey(s.Loan.Start); err != nil {
			errs = append(errs, fmt.Errorf("loan.start: %w", err))
		}
	}
	if s.Loan.Term <= 0 {
		errs = append(errs, fmt.Errorf("loan.term: %w", amortize.ErrInvalidTerm))
	}
	if s.Loan.Principal <= 0 {
		errs = append(errs, fmt.Errorf("loan.principal: %w", amortize.ErrInvalidPrincipal))
	}
	if s.Loan.AnnualRate < 0 {
		errs = append(errs, fmt.Errorf("loan.annual_rate: %w", amortize.ErrInvalidRate))
	}
	for i, p := range s.Prepayments {
		if _, err := amortize.ParseDateKey(p.Date); err != nil {
			errs = append(errs, fmt.Errorf("prepayments[%d].date: %w", i, err))
		}
		if p.Amount <= 0 {
			errs = append(errs, fmt.Errorf("prepayments[%d].amount: %w: must be positive", i, amortize.ErrInvalidArgument))
		}
		if _, err := p.strategy(); err != nil {
			errs = append(errs, fmt.Errorf("prepayments[%d].mode %q: %w", i, p.Mode, err))
		}
	}
	return errors.Join(errs...)
}

func (p Prepayment) strategy() (amortize.PrepayStrategy, error) {
	if p.Mode == "" {
		return amortize.PrepayTermReduction, nil
	}
	return amortize.ParsePrepayStrategy(strings.ToLower(p.Mode))
}

// Contract builds the validated loan contract.
func (s *Scenario) Contract() (amortize.Contract, amortize.RepayType, error) {
	method, err := amortize.ParseRepayType(s.Loan.Method)
	if err != nil {
		return amortize.Contract{}, "", err
	}
	start := amortize.Today()
	if s.Loan.Start != "" {
		if start, err = amortize.ParseDateKey(s.Loan.Start); err != nil {
			return amortize.Contract{}, "", err
		}
	}
	c, err := amortize.NewContract(
		decimal.NewFromFloat(s.Loan.AnnualRate),
		decimal.NewFromFloat(s.Loan.Principal),
		s.Loan.Term,
		start,
	)
	return c, method, err
}

// Run calculates the schedule and applies the prepayments in date order.
// Prepayments sharing a date keep their file order.
func (s *Scenario) Run(logger *zap.Logger) (*amortize.Calculator, []amortize.PrepayResult, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	contract, method, err := s.Contract()
	if err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	calc, err := amortize.NewCalculator(contract, method, amortize.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := calc.Calculate(); err != nil {
		return nil, nil, err
	}

	type step struct {
		date     civil.Date
		amount   decimal.Decimal
		strategy amortize.PrepayStrategy
	}
	steps := make([]step, 0, len(s.Prepayments))
	for _, p := range s.Prepayments {
		date, _ := amortize.ParseDateKey(p.Date)
		strategy, _ := p.strategy()
		steps = append(steps, step{date: date, amount: decimal.NewFromFloat(p.Amount), strategy: strategy})
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].date.Before(steps[j].date)
	})
	results := make([]amortize.PrepayResult, 0, len(steps))
	for _, p := range steps {
		res, err := calc.Prepay(p.date, p.amount, p.strategy)
		if err != nil {
			return nil, nil, fmt.Errorf("prepayment %s: %w", amortize.DateKey(p.date), err)
		}
		results = append(results, res)
	}
	logger.Info("scenario applied",
		zap.String("op", "scenario.Run"),
		zap.String("method", string(method)),
		zap.Int("prepayments", len(results)),
		zap.String("total_interest", amortize.Money(calc.TotalInterest())),
	)
	return calc, results, nil
}
