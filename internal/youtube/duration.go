package youtube

import (
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts the provider's ISO-8601 duration (PT#H#M#S) to
// whole seconds. Unparseable input yields 0.
func ParseISODuration(s string) int64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours := atoi(m[1])
	minutes := atoi(m[2])
	seconds := atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

func atoi(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
