package serviceorders

import (
	"fmt"
	"regexp"
	"strconv"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// NextOSNumber derives the number following last within year. The sequence restarts
// at 0001 when last is empty or belongs to another year.
func NextOSNumber(last string, year int) string {
	next := 1
	prefix := fmt.Sprintf("OS-%d-", year)
	if len(last) > len(prefix) && last[:len(prefix)] == prefix {
		if m := trailingDigits.FindString(last); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next)
}
