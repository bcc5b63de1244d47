package amortize

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateKeyLayout 计划表日期的定长格式
const DateKeyLayout = "20060102"

// AddMonths 返回 n 个月后的同一天，目标月没有这一天时取月末
// （1 月 31 日加一个月是 2 月 28/29 日，而不是 3 月 3 日）
func AddMonths(d civil.Date, n int) civil.Date {
	m := int(d.Month) - 1 + n
	y := d.Year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := d.Day
	if last := daysIn(y, month); day > last {
		day = last
	}
	return civil.Date{Year: y, Month: month, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateKey 格式化为 YYYYMMDD
func DateKey(d civil.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// ParseDateKey 只接受 8 位数字且能还原的合法日期
func ParseDateKey(s string) (civil.Date, error) {
	if len(s) != len(DateKeyLayout) {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return civil.DateOf(t), nil
}

// ElapsedMonths 计算自 start 起到 today 已经过去的整月数与剩余月数。
// today 的日小于 start 的日时，当月不计入。
func ElapsedMonths(term int, start, today civil.Date) (past, left int) {
	past = (today.Year-start.Year)*12 + int(today.Month) - int(start.Month)
	if today.Day < start.Day {
		past--
	}
	if past < 0 {
		past = 0
	}
	if past > term {
		past = term
	}
	return past, term - past
}
