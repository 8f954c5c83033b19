package cli

import (
	"fmt"
	"time"
)

// FormatDuration renders d as 850ms, 4.2s or 3m05s.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatCountdown renders the seconds left before a silence timeout.
func FormatCountdown(remaining time.Duration) string {
	secs := int((remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("%ds", max(secs, 0))
}
