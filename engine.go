package amortize

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculator 独占一份合同和一张计划表。
// 同一笔贷款的 Calculate 与提前还款必须按时间顺序串行调用；不同贷款各自实例化，互不共享状态。
type Calculator struct {
	contract Contract
	strategy Strategy
	logger   *zap.Logger

	schedule      *Schedule
	totalInterest decimal.Decimal
	totalPayment  decimal.Decimal

	// 等额本息的固定月供在 Calculate 时确定，等额本金的固定本金在构造时确定，缩期时沿用
	fixedPayment   decimal.Decimal
	fixedPrincipal decimal.Decimal

	prepayments []PrepayResult
}

type Option func(*Calculator)

// WithLogger 覆盖全局 Config 中的 logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewCalculator(contract Contract, method RepayType, opts ...Option) (*Calculator, error) {
	strategy, err := StrategyFor(method)
	if err != nil {
		return nil, err
	}
	if _, err := NewContract(contract.AnnualRate, contract.Principal, contract.Term, contract.Start); err != nil {
		return nil, err
	}
	c := &Calculator{
		contract: contract,
		strategy: strategy,
		logger:   cfg.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if method == RepayTypeEqualPrincipal {
		c.fixedPrincipal = LinearShare(contract.Principal, contract.Term)
	}
	return c, nil
}

// Calculate 从头按整个合同期限生成计划表，重复调用结果相同，之前的提前还款会被丢弃
func (c *Calculator) Calculate() error {
	records, err := c.strategy.Compute(Plan{
		Term:      c.contract.Term,
		Principal: c.contract.Principal,
		Rate:      c.contract.PeriodRate(),
		Anchor:    c.contract.Start,
		Share:     c.fixedPrincipal,
	})
	if err != nil {
		return err
	}
	if c.strategy.Type() == RepayTypeEqualInstallment {
		c.fixedPayment = AnnuityPayment(c.contract.Principal, int64(c.contract.Term), c.contract.PeriodRate())
	}
	c.prepayments = nil
	c.commit(newSchedule(records))
	c.logger.Debug("schedule calculated",
		zap.String("op", "amortize.Calculate"),
		zap.String("method", string(c.strategy.Type())),
		zap.Int("periods", c.schedule.Len()),
		zap.String("total_interest", Money(c.totalInterest)),
	)
	return nil
}

func (c *Calculator) commit(s *Schedule) {
	c.schedule = s
	c.totalInterest, c.totalPayment = s.Totals()
}

func (c *Calculator) Contract() Contract { return c.contract }

func (c *Calculator) Method() RepayType { return c.strategy.Type() }

// Schedule 返回计划表记录的副本
func (c *Calculator) Schedule() []PaymentRecord { return c.schedule.Records() }

func (c *Calculator) Calculated() bool { return c.schedule != nil }

func (c *Calculator) TotalInterest() decimal.Decimal { return c.totalInterest }

func (c *Calculator) TotalPayment() decimal.Decimal { return c.totalPayment }

// FixedPayment 等额本息的原始月供，等额本金为零
func (c *Calculator) FixedPayment() decimal.Decimal { return c.fixedPayment }

// FixedPrincipal 等额本金的原始每期本金，等额本息为零
func (c *Calculator) FixedPrincipal() decimal.Decimal { return c.fixedPrincipal }

// Prepayments 自上次 Calculate 以来的提前还款记录
func (c *Calculator) Prepayments() []PrepayResult {
	return append([]PrepayResult(nil), c.prepayments...)
}

// RemainingPrincipal 指定日期（含）已到期期次之后的剩余本金
func (c *Calculator) RemainingPrincipal(date civil.Date) decimal.Decimal {
	past := c.schedule.Split(date)
	if past == 0 {
		return c.contract.Principal
	}
	return c.schedule.At(past - 1).Remaining
}
