package amortize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Summary 计划表汇总
type Summary struct {
	Method         RepayType       `json:"method"`
	Principal      decimal.Decimal `json:"principal"`
	Term           int             `json:"term"`
	AnnualRate     decimal.Decimal `json:"annual_rate"`
	Start          string          `json:"start"`
	Periods        int             `json:"periods"`
	FirstDue       string          `json:"first_due,omitempty"`
	LastDue        string          `json:"last_due,omitempty"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	FixedPayment   decimal.Decimal `json:"fixed_payment"`
	FixedPrincipal decimal.Decimal `json:"fixed_principal"`
	PaidOff        bool            `json:"paid_off"`
}

func (c *Calculator) Summary() Summary {
	s := Summary{
		Method:         c.Method(),
		Principal:      c.contract.Principal,
		Term:           c.contract.Term,
		AnnualRate:     c.contract.AnnualRate,
		Start:          DateKey(c.contract.Start),
		Periods:        c.schedule.Len(),
		TotalPayment:   c.totalPayment,
		TotalInterest:  c.totalInterest,
		FixedPayment:   c.fixedPayment,
		FixedPrincipal: c.fixedPrincipal,
	}
	if s.Periods > 0 {
		s.FirstDue = c.schedule.At(0).Key()
		last, _ := c.schedule.Last()
		s.LastDue = last.Key()
		s.PaidOff = last.IsPayoff()
	}
	return s
}

// Line 单期明细的一行文字
func (r PaymentRecord) Line() string {
	label := fmt.Sprintf("第%d个月还款额", r.Index)
	if r.IsPayoff() {
		label = "提前结清"
	}
	info := []string{
		fmt.Sprintf("%s: %s", label, Money(r.Payment)),
		"还款日期: " + r.Key(),
		"本金: " + Money(r.Principal),
		"利息: " + Money(r.Interest),
		"剩余本金: " + Money(r.Remaining),
	}
	return strings.Join(info, ", ")
}

// Info 生成可读的汇总信息，includeMonthly 时先逐期列出明细。只读，不修改状态。
func (c *Calculator) Info(includeMonthly bool) []string {
	var lines []string
	if includeMonthly {
		for _, r := range c.schedule.Records() {
			lines = append(lines, r.Line())
		}
	}
	lines = append(lines,
		strings.Repeat("-", 20),
		"贷款总额: "+Money(c.contract.Principal),
		fmt.Sprintf("贷款期限（月）: %d", c.contract.Term),
		fmt.Sprintf("执行年利率: %s%%", c.contract.AnnualRate.Mul(decimal.NewFromInt(100)).StringFixed(2)),
		"总还款额: "+Money(c.totalPayment),
		"总利息: "+Money(c.totalInterest),
	)
	return lines
}
