package google

import (
	"fmt"
	"strconv"
	"strings"

	ports "finanzas/internal/sheets"
)

// findRow returns the 1-based row whose first cell is the movement id, or 0.
// The header row never matches.
func findRow(keys [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i := 1; i < len(keys); i++ {
		if len(keys[i]) == 0 {
			continue
		}
		if cellKey(keys[i][0]) == want {
			return i + 1
		}
	}
	return 0
}

// cellKey normalizes a key cell; USER_ENTERED ids may come back as numbers.
func cellKey(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatInt(int64(x), 10)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func rowRange(sheet string, row int) string {
	last := string(rune('A' + len(ports.Header) - 1))
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, last, row)
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}
