package eventtime

import (
	"regexp"
	"strings"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	compactTimeRe = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)
	fixedLayouts  = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}
)

// Parser reads start times typed by a leader when editing an event.
type Parser struct {
	loc *time.Location
	w   *when.Parser
}

// NewParser returns a Parser that interprets wall-clock input in loc. A nil loc is UTC.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{loc: loc, w: w}
}

// ParseStart accepts fixed layouts ("2026-10-16 21:00") and free text such as
// "tomorrow at 9pm" or "next friday 21:30". The result must be after now.
func (p *Parser) ParseStart(input string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return time.Time{}, eventdomain.NewValidationError("datetime", "start time is required")
	}
	now = now.In(p.loc)

	for _, layout := range fixedLayouts {
		if t, err := time.ParseInLocation(layout, raw, p.loc); err == nil {
			return p.future(input, t, now)
		}
	}

	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, "today ", "today at ")
	s = compactTimeRe.ReplaceAllString(s, "$1:$2 $3")

	r, err := p.w.Parse(s, now)
	if err != nil || r == nil {
		return time.Time{}, eventdomain.NewValidationError("datetime", "could not read %q as a date and time", input)
	}
	return p.future(input, r.Time.In(p.loc), now)
}

func (p *Parser) future(input string, t, now time.Time) (time.Time, error) {
	t = t.Truncate(time.Minute)
	if !t.After(now.Truncate(time.Minute)) {
		return time.Time{}, eventdomain.NewValidationError("datetime", "%q is not in the future", input)
	}
	return t, nil
}
