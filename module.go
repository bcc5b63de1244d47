package amortize

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Contract 贷款合同，创建后不再变化
type Contract struct {
	AnnualRate decimal.Decimal `json:"annual_rate"` // 年利率，小数形式，如 0.036
	Principal  decimal.Decimal `json:"principal"`   // 合同本金
	Term       int             `json:"term"`        // 期限（月）
	Start      civil.Date      `json:"start"`       // 起始日，第 1 期在一个月后
}

// NewContract 工厂，做一些基本校验。零利率是合法输入。
func NewContract(annualRate, principal decimal.Decimal, term int, start civil.Date) (Contract, error) {
	if term <= 0 {
		return Contract{}, fmt.Errorf("%w, got %d", ErrInvalidTerm, term)
	}
	if principal.Sign() <= 0 {
		return Contract{}, fmt.Errorf("%w, got %s", ErrInvalidPrincipal, principal)
	}
	if annualRate.Sign() < 0 {
		return Contract{}, fmt.Errorf("%w, got %s", ErrInvalidRate, annualRate)
	}
	if !start.IsValid() {
		return Contract{}, fmt.Errorf("%w: %v", ErrInvalidDate, start)
	}
	return Contract{AnnualRate: annualRate, Principal: principal, Term: term, Start: start}, nil
}

// PeriodRate 月利率 = 年利率 / 12
func (c Contract) PeriodRate() decimal.Decimal {
	return c.AnnualRate.Div(twelve)
}

// Elapsed 按当前 Clock 计算已还月数与剩余月数
func (c Contract) Elapsed() (past, left int) {
	return ElapsedMonths(c.Term, c.Start, Today())
}

// PaymentRecord 单期还款明细，写入计划表后不再修改，只会被整体替换
type PaymentRecord struct {
	Index     int             `json:"index"` // 第几期（从 1 开始），结清记录为 -1
	DueDate   civil.Date      `json:"due_date"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Remaining decimal.Decimal `json:"remaining"` // 本期还款后的剩余本金
}

func (r PaymentRecord) Key() string { return DateKey(r.DueDate) }

func (r PaymentRecord) IsPayoff() bool { return r.Index == PayoffIndex }

func newRecord(index int, due civil.Date, principal, interest, remaining decimal.Decimal) PaymentRecord {
	return PaymentRecord{
		Index:     index,
		DueDate:   due,
		Payment:   principal.Add(interest),
		Principal: principal,
		Interest:  interest,
		Remaining: remaining,
	}
}

// Schedule 按还款日升序排列的计划表。
// 每个还款日只有一条常规记录；结清记录是最后一条，可以和当天到期的常规记录同日。
type Schedule struct {
	records []PaymentRecord
}

func newSchedule(records []PaymentRecord) *Schedule {
	s := &Schedule{records: append([]PaymentRecord(nil), records...)}
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.less(s.records[i], s.records[j])
	})
	return s
}

func (s *Schedule) less(a, b PaymentRecord) bool {
	if a.DueDate != b.DueDate {
		return a.DueDate.Before(b.DueDate)
	}
	return !a.IsPayoff() && b.IsPayoff()
}

func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func (s *Schedule) At(i int) PaymentRecord { return s.records[i] }

// Records 返回副本
func (s *Schedule) Records() []PaymentRecord {
	if s == nil {
		return nil
	}
	return append([]PaymentRecord(nil), s.records...)
}

func (s *Schedule) Last() (PaymentRecord, bool) {
	if s.Len() == 0 {
		return PaymentRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// Split 返回第一条还款日晚于 date 的下标：[0, i) 为已过期次，[i, Len) 为未来期次
func (s *Schedule) Split(date civil.Date) int {
	return sort.Search(s.Len(), func(i int) bool {
		return s.records[i].DueDate.After(date)
	})
}

// Totals 汇总全部记录的利息和还款额
func (s *Schedule) Totals() (interest, payment decimal.Decimal) {
	for _, r := range s.Records() {
		interest = interest.Add(r.Interest)
		payment = payment.Add(r.Payment)
	}
	return interest, payment
}

// replaceSuffix 保留 [0, from)，拼接新的尾部，返回新的计划表，原表不变
func (s *Schedule) replaceSuffix(from int, tail []PaymentRecord) *Schedule {
	records := make([]PaymentRecord, 0, from+len(tail))
	records = append(records, s.records[:from]...)
	records = append(records, tail...)
	return newSchedule(records)
}
