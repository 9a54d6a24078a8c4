package format

import (
	"fmt"
)

// Amount renders a minor-unit amount as an exact major-unit decimal
// string ("150000" of minor units -> "1500.00").
func Amount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
