package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millisTotal := int64(math.Round(seconds * 1000))
	hours := millisTotal / 3_600_000
	minutes := (millisTotal % 3_600_000) / 60_000
	secs := (millisTotal % 60_000) / 1000
	millis := millisTotal % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads HH:MM:SS,mmm or HH:MM:SS.mmm into seconds. The hour
// field may exceed two digits; the millisecond separator may be a comma or a
// period.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")

	hms := strings.Split(value, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.ParseFloat(hms[2], 64)
	if errH != nil || errM != nil || errS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60) + seconds, nil
}
