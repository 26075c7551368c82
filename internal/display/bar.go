package display

import "strings"

// Bar renders a gauge of width cells with pct percent of them filled.
// pct is clamped to [0,100].
func Bar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Pips renders one marker per entry, full for true and hollow for false.
func Pips(states []bool) string {
	var sb strings.Builder
	for i, on := range states {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if on {
			sb.WriteString("(*)")
		} else {
			sb.WriteString("( )")
		}
	}
	return sb.String()
}
