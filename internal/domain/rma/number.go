package rma

import (
	"fmt"
	"time"
)

// NumberPrefix returns the RMA number prefix for the calendar month of t,
// e.g. "RMA-202601-".
func NumberPrefix(t time.Time) string {
	return "RMA-" + t.Format("200601") + "-"
}

// FormatNumber formats sequence seq within the month of t as RMA-YYYYMM-NNNNNN
func FormatNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("%s%06d", NumberPrefix(t), seq)
}
