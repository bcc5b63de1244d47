package amortize

import (
	"fmt"
	"math"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// precision 计算过程保留的小数位数，避免逐期相乘后位数无限增长
const precision = 16

// Plan 一次排期的输入。第 k 期（1..Term）的期序号为 Offset+k，
// 还款日为 AddMonths(Anchor, Offset+k)，重排的尾部因此仍落在合同的月度网格上。
type Plan struct {
	Term      int
	Principal decimal.Decimal
	Rate      decimal.Decimal // 期利率
	Anchor    civil.Date
	Offset    int
	// Share 等额本金每期固定本金，为零时取 Principal/Term
	Share decimal.Decimal
}

func (p Plan) validate() error {
	if p.Term <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidTerm, p.Term)
	}
	if p.Principal.Sign() <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidPrincipal, p.Principal)
	}
	if p.Rate.Sign() < 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidRate, p.Rate)
	}
	return nil
}

func (p Plan) due(k int) civil.Date { return AddMonths(p.Anchor, p.Offset+k) }

// Strategy 还款方式，只有等额本息和等额本金两种实现
type Strategy interface {
	Type() RepayType
	Compute(p Plan) ([]PaymentRecord, error)
}

// StrategyFor 按还款方式选择排期算法
func StrategyFor(t RepayType) (Strategy, error) {
	switch t {
	case RepayTypeEqualInstallment:
		return annuity{}, nil
	case RepayTypeEqualPrincipal:
		return linear{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRepayType, t)
	}
}

// AnnuityPayment 等额本息每期还款额，零利率时为 principal/periods
func AnnuityPayment(principal Decimal, periods int64, rate Decimal) Decimal {
	if rate.IsZero() {
		return principal.Div(decimal.NewFromInt(periods))
	}
	base1r := rate.Add(one)
	base1rn := base1r.Pow(decimal.NewFromInt(periods))

	numerator := principal.Mul(base1rn).Mul(rate)
	denominator := base1rn.Sub(one)
	return numerator.Div(denominator).Round(precision)
}

// PeriodsForPayment 每期固定还 payment 时还清 principal 需要的期数（向上取整）
func PeriodsForPayment(principal, payment, rate Decimal) (int, error) {
	if payment.Sign() <= 0 {
		return 0, ErrPaymentBelowInterest
	}
	if rate.IsZero() {
		return int(principal.Div(payment).Ceil().IntPart()), nil
	}
	if payment.LessThanOrEqual(principal.Mul(rate)) {
		return 0, ErrPaymentBelowInterest
	}
	// n = -ln(1 - P*r/A) / ln(1+r)，对数只能走 float64
	x := one.Sub(principal.Mul(rate).Div(payment)).InexactFloat64()
	n := -math.Log(x) / math.Log1p(rate.InexactFloat64())
	// 恰好整除时浮点误差会多出一期
	return int(math.Ceil(n - 1e-9)), nil
}

type annuity struct{}

func (annuity) Type() RepayType { return RepayTypeEqualInstallment }

// Compute 生成等额本息计划。最后一期本金取剩余本金，保证余额精确归零。
func (annuity) Compute(p Plan) ([]PaymentRecord, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	pmt := AnnuityPayment(p.Principal, int64(p.Term), p.Rate)
	records := make([]PaymentRecord, 0, p.Term)
	balance := p.Principal
	for k := 1; k <= p.Term; k++ {
		interest := balance.Mul(p.Rate).Round(precision)
		principal := pmt.Sub(interest)
		if k == p.Term || principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)
		records = append(records, newRecord(p.Offset+k, p.due(k), principal, interest, balance))
		if balance.IsZero() {
			break
		}
	}
	return records, nil
}

type linear struct{}

func (linear) Type() RepayType { return RepayTypeEqualPrincipal }

// Compute 生成等额本金计划，本金每期固定，利息按期初余额计算，月供逐期递减
func (linear) Compute(p Plan) ([]PaymentRecord, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	share := p.Share
	if share.Sign() <= 0 {
		share = LinearShare(p.Principal, p.Term)
	}
	records := make([]PaymentRecord, 0, p.Term)
	balance := p.Principal
	for k := 1; k <= p.Term; k++ {
		interest := balance.Mul(p.Rate).Round(precision)
		principal := share
		if k == p.Term || principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)
		records = append(records, newRecord(p.Offset+k, p.due(k), principal, interest, balance))
		if balance.IsZero() {
			break
		}
	}
	return records, nil
}

// LinearShare 等额本金每期本金
func LinearShare(principal Decimal, periods int) Decimal {
	return principal.Div(decimal.NewFromInt(int64(periods)))
}
