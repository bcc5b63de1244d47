package amortize

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PrepayResult 一次提前还款的处理结果
type PrepayResult struct {
	Outcome         PrepayOutcome   `json:"outcome"`
	Strategy        PrepayStrategy  `json:"strategy"`
	Date            civil.Date      `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingBefore decimal.Decimal `json:"remaining_before"` // 提前还款前的剩余本金
	RemainingAfter  decimal.Decimal `json:"remaining_after"`
	PeriodsBefore   int             `json:"periods_before"` // 提前还款日之后的期数
	PeriodsAfter    int             `json:"periods_after"`
}

// PrepayKey 同 Prepay，日期为 YYYYMMDD 字符串
func (c *Calculator) PrepayKey(date string, amount decimal.Decimal, strategy PrepayStrategy) (PrepayResult, error) {
	d, err := ParseDateKey(date)
	if err != nil {
		return PrepayResult{}, err
	}
	return c.Prepay(d, amount, strategy)
}

// Prepay 在 date 提前归还 amount 本金。
// 还款日不晚于 date 的期次视为已还，之后的期次按 strategy 重排；
// 金额不低于剩余本金时直接结清，用一条期序号为 -1 的记录替换全部未来期次。
// 新的尾部完整算出后才替换进计划表，出错时计划表保持不变。
func (c *Calculator) Prepay(date civil.Date, amount decimal.Decimal, strategy PrepayStrategy) (PrepayResult, error) {
	res := PrepayResult{Outcome: PrepayNoOp, Strategy: strategy, Date: date, Amount: amount}
	if c.schedule == nil {
		return res, ErrNotCalculated
	}
	if strategy != PrepayTermReduction && strategy != PrepayPaymentReduction {
		return res, fmt.Errorf("%w: %q", ErrUnsupportedPrepay, strategy)
	}
	if !date.IsValid() {
		return res, fmt.Errorf("%w: %v", ErrInvalidDate, date)
	}
	if n := len(c.prepayments); n > 0 && date.Before(c.prepayments[n-1].Date) {
		return res, fmt.Errorf("%w: %s before %s", ErrOutOfOrder, DateKey(date), DateKey(c.prepayments[n-1].Date))
	}
	log := c.logger.With(
		zap.String("op", "amortize.Prepay"),
		zap.String("date", DateKey(date)),
		zap.String("amount", amount.String()),
		zap.String("strategy", string(strategy)),
	)

	past := c.schedule.Split(date)
	res.PeriodsBefore = c.schedule.Len() - past
	res.RemainingBefore = c.RemainingPrincipal(date)
	res.RemainingAfter = res.RemainingBefore
	res.PeriodsAfter = res.PeriodsBefore
	if amount.Sign() <= 0 || res.PeriodsBefore == 0 {
		log.Debug("prepayment ignored", zap.Int("future_periods", res.PeriodsBefore))
		return res, nil
	}

	if amount.GreaterThanOrEqual(res.RemainingBefore) {
		payoff := PaymentRecord{
			Index:     PayoffIndex,
			DueDate:   date,
			Payment:   res.RemainingBefore,
			Principal: decimal.Zero,
			Interest:  decimal.Zero,
			Remaining: decimal.Zero,
		}
		c.commit(c.schedule.replaceSuffix(past, []PaymentRecord{payoff}))
		res.Outcome = PrepayPaidOff
		res.RemainingAfter = decimal.Zero
		res.PeriodsAfter = 0
		c.prepayments = append(c.prepayments, res)
		log.Debug("loan paid off", zap.String("remaining_before", Money(res.RemainingBefore)))
		return res, nil
	}

	first := c.schedule.At(past)
	plan := Plan{
		Principal: res.RemainingBefore.Sub(amount),
		Rate:      c.contract.PeriodRate(),
		Anchor:    c.contract.Start,
		Offset:    first.Index - 1,
	}
	var (
		tail []PaymentRecord
		err  error
	)
	switch strategy {
	case PrepayPaymentReduction:
		plan.Term = res.PeriodsBefore
		tail, err = c.strategy.Compute(plan)
	case PrepayTermReduction:
		tail, err = c.shortenTerm(plan)
	}
	if err != nil {
		log.Warn("prepayment rejected", zap.Error(err))
		return res, err
	}

	c.commit(c.schedule.replaceSuffix(past, tail))
	res.Outcome = PrepayRescheduled
	res.RemainingAfter = plan.Principal
	res.PeriodsAfter = len(tail)
	c.prepayments = append(c.prepayments, res)
	log.Debug("schedule rebuilt",
		zap.Int("periods_before", res.PeriodsBefore),
		zap.Int("periods_after", res.PeriodsAfter),
		zap.String("total_interest", Money(c.totalInterest)),
	)
	return res, nil
}

// shortenTerm 缩期：等额本息保持原月供，等额本金保持原每期本金，只减少期数
func (c *Calculator) shortenTerm(p Plan) ([]PaymentRecord, error) {
	switch c.strategy.Type() {
	case RepayTypeEqualInstallment:
		return c.shortenAnnuity(p)
	case RepayTypeEqualPrincipal:
		p.Share = c.fixedPrincipal
		p.Term = int(p.Principal.Div(p.Share).Ceil().IntPart())
		return c.strategy.Compute(p)
	default:
		return nil, ErrUnsupportedRepayType
	}
}

// shortenAnnuity 月供固定为原月供，逐期计算；最后一期本金取剩余本金，利息倒算为月供减本金
func (c *Calculator) shortenAnnuity(p Plan) ([]PaymentRecord, error) {
	pmt := c.fixedPayment
	n, err := PeriodsForPayment(p.Principal, pmt, p.Rate)
	if err != nil {
		return nil, err
	}
	records := make([]PaymentRecord, 0, n)
	balance := p.Principal
	for k := 1; k <= n; k++ {
		interest := balance.Mul(p.Rate).Round(precision)
		principal := pmt.Sub(interest)
		if k == n || principal.GreaterThanOrEqual(balance) {
			principal = balance
			interest = pmt.Sub(principal)
		}
		balance = balance.Sub(principal)
		records = append(records, PaymentRecord{
			Index:     p.Offset + k,
			DueDate:   p.due(k),
			Payment:   pmt,
			Principal: principal,
			Interest:  interest,
			Remaining: balance,
		})
		if balance.IsZero() {
			break
		}
	}
	return records, nil
}
