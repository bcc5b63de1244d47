package amortize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// CSVHeader 导出表头
var CSVHeader = []string{"还款日期", "还款额", "本金", "利息", "剩余本金"}

// SheetName xlsx 导出的工作表名
const SheetName = "还款计划"

func (r PaymentRecord) row() []string {
	return []string{r.Key(), Money(r.Payment), Money(r.Principal), Money(r.Interest), Money(r.Remaining)}
}

// WriteCSV 按还款日升序写出，每期一行，金额保留 2 位小数
func (c *Calculator) WriteCSV(w io.Writer, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
	}
	for _, r := range c.schedule.Records() {
		if err := cw.Write(r.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c *Calculator) ExportCSV(path string, withHeader bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteCSV(f, withHeader); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteXLSX 写出与 CSV 相同的表格，末尾追加合计行
func (c *Calculator) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for i, header := range CSVHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return err
		}
	}
	row := 2
	for _, r := range c.schedule.Records() {
		values := []any{
			r.Key(),
			cfg.Round(r.Payment).InexactFloat64(),
			cfg.Round(r.Principal).InexactFloat64(),
			cfg.Round(r.Interest).InexactFloat64(),
			cfg.Round(r.Remaining).InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
		row++
	}
	totals := []any{"合计", cfg.Round(c.totalPayment).InexactFloat64(), "", cfg.Round(c.totalInterest).InexactFloat64(), ""}
	if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &totals); err != nil {
		return err
	}
	return f.Write(w)
}

func (c *Calculator) ExportXLSX(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteXLSX(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
