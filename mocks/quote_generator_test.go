package mocks

import (
	"strconv"
	"testing"
)

func TestQuoteGenerator_Next(t *testing.T) {
	gen := NewQuoteGenerator(42, SinaStyleConfig())
	codes := []string{"600519", "000001"}

	for step := 0; step < 50; step++ {
		table := gen.Next(codes)

		if len(table.Rows) != len(codes) {
			t.Fatalf("expected %d rows, got %d", len(codes), len(table.Rows))
		}

		for i, row := range table.Rows {
			if row["代码"] != codes[i] {
				t.Errorf("expected code %s at row %d, got %s", codes[i], i, row["代码"])
			}

			price, err := strconv.ParseFloat(row["最新价"], 64)
			if err != nil || price <= 0 {
				t.Errorf("invalid price %q at step %d", row["最新价"], step)
			}

			if _, err := strconv.ParseFloat(row["涨跌幅"], 64); err != nil {
				t.Errorf("invalid pct %q at step %d", row["涨跌幅"], step)
			}
		}
	}
}

func TestQuoteGenerator_Reproducibility(t *testing.T) {
	a := NewQuoteGenerator(7, SinaStyleConfig())
	b := NewQuoteGenerator(7, SinaStyleConfig())

	for step := 0; step < 10; step++ {
		rowA := a.Next([]string{"X"}).Rows[0]
		rowB := b.Next([]string{"X"}).Rows[0]

		if rowA["最新价"] != rowB["最新价"] {
			t.Fatalf("same seed diverged at step %d: %s != %s", step, rowA["最新价"], rowB["最新价"])
		}
	}
}
