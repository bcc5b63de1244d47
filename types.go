package amortize

import "github.com/shopspring/decimal"

type Decimal = decimal.Decimal

// RepayType 还款方式
type RepayType string

// PrepayStrategy 提前还款策略
type PrepayStrategy string

// PrepayOutcome 一次提前还款的结果
type PrepayOutcome string

// ------------------- 值对象 -------------------

type RoundStrategy = func(decimal decimal.Decimal) decimal.Decimal

const (
	RepayTypeEqualPrincipal   RepayType = "EQUAL_PRINCIPAL"   // 等额本金
	RepayTypeEqualInstallment RepayType = "EQUAL_INSTALLMENT" // 等额本息
)

const (
	PrepayTermReduction    PrepayStrategy = "TERM_REDUCTION"    // 缩期，月供不变
	PrepayPaymentReduction PrepayStrategy = "PAYMENT_REDUCTION" // 减供，期数不变
)

const (
	PrepayNoOp        PrepayOutcome = "NOOP"
	PrepayRescheduled PrepayOutcome = "RESCHEDULED"
	PrepayPaidOff     PrepayOutcome = "PAID_OFF"
)

// PayoffIndex 结清记录的期序号
const PayoffIndex = -1

// monthsPerYear 年利率折算月利率
const monthsPerYear = 12

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(monthsPerYear)
)

var BankRound = func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(2) }

// Money 金额展示辅助，保持 2 位小数
func Money(d decimal.Decimal) string {
	return cfg.Round(d).StringFixed(2)
}

// ParseRepayType 兼容界面上的 annuity / linear 写法
func ParseRepayType(s string) (RepayType, error) {
	switch s {
	case "annuity", string(RepayTypeEqualInstallment):
		return RepayTypeEqualInstallment, nil
	case "linear", string(RepayTypeEqualPrincipal):
		return RepayTypeEqualPrincipal, nil
	}
	return "", ErrUnsupportedRepayType
}

// ParsePrepayStrategy 兼容界面上的 short（缩短周期）/ fixed（固定周期）写法
func ParsePrepayStrategy(s string) (PrepayStrategy, error) {
	switch s {
	case "short", "term_reduction", string(PrepayTermReduction):
		return PrepayTermReduction, nil
	case "fixed", "payment_reduction", string(PrepayPaymentReduction):
		return PrepayPaymentReduction, nil
	}
	return "", ErrUnsupportedPrepay
}
