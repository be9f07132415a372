package eventdomain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxEventDuration bounds the duration a leader can enter.
const MaxEventDuration = 24 * time.Hour

var (
	bareNumberRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	hoursMinutesRe = regexp.MustCompile(`^(\d+)h(\d+)$`)
)

// ParseDuration reads a human duration such as "2h", "90m", "1h30m", "1h30" or "1.5h".
// A bare number is hours.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.ToLower(strings.Join(strings.Fields(input), ""))
	if s == "" {
		return 0, NewValidationError("duration", "duration is required")
	}

	if bareNumberRe.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || n > MaxEventDuration.Hours() {
			return 0, NewValidationError("duration", "could not read %q as at most %s", input, MaxEventDuration)
		}
		return checkDuration(input, time.Duration(n*float64(time.Hour)))
	}
	if m := hoursMinutesRe.FindStringSubmatch(s); m != nil {
		s = m[1] + "h" + m[2] + "m"
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, NewValidationError("duration", "could not read %q, try 2h or 90m", input)
	}
	return checkDuration(input, d)
}

func checkDuration(input string, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, NewValidationError("duration", "%q must be longer than zero", input)
	}
	if d > MaxEventDuration {
		return 0, NewValidationError("duration", "%q is longer than %s", input, MaxEventDuration)
	}
	return d, nil
}
