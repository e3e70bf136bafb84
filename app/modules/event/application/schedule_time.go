package eventservice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var compactTime = regexp.MustCompile(`\b(\d{1,2})(\d{2})(am|pm)\b`)

// StartTimeParser turns user input into an event start time.
type StartTimeParser struct {
	w *when.Parser
}

// NewStartTimeParser creates a parser with the English and common rules.
func NewStartTimeParser() *StartTimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &StartTimeParser{w: w}
}

// Parse accepts RFC 3339 or a phrase such as "tomorrow at 8pm", resolved
// relative to now in now's location. The result is in UTC, truncated to the
// minute, and must be after now.
func (p *StartTimeParser) Parse(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("start time is required: %w", ErrInvalidInput)
	}

	parsed, err := time.Parse(time.RFC3339, input)
	if err != nil {
		normalized := strings.ToLower(input)
		normalized = compactTime.ReplaceAllString(normalized, "$1:$2 $3")

		r, werr := p.w.Parse(normalized, now)
		if werr != nil || r == nil {
			return time.Time{}, fmt.Errorf("could not recognize start time %q: %w", input, ErrInvalidInput)
		}
		parsed = r.Time
	}

	parsed = parsed.Truncate(time.Minute)
	if !parsed.After(now.Truncate(time.Minute)) {
		return time.Time{}, fmt.Errorf("%s: %w", parsed.UTC().Format(time.RFC3339), ErrStartInPast)
	}
	return parsed.UTC(), nil
}
