package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronSpec is a parsed five-field cron expression
// (minute hour day-of-month month day-of-week).
type CronSpec struct {
	minute field
	hour   field
	dom    field
	month  field
	dow    field
}

// field is a bitmask of allowed values; bit v set means value v matches.
// Minute is the widest field (0-59), so 64 bits cover every position.
type field uint64

func ParseCronSpec(expr string) (CronSpec, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return CronSpec{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}

	minute, err := parseField(parts[0], 0, 59)
	if err != nil {
		return CronSpec{}, fmt.Errorf("minute: %w", err)
	}
	hour, err := parseField(parts[1], 0, 23)
	if err != nil {
		return CronSpec{}, fmt.Errorf("hour: %w", err)
	}
	dom, err := parseField(parts[2], 1, 31)
	if err != nil {
		return CronSpec{}, fmt.Errorf("day-of-month: %w", err)
	}
	month, err := parseField(parts[3], 1, 12)
	if err != nil {
		return CronSpec{}, fmt.Errorf("month: %w", err)
	}
	dow, err := parseField(parts[4], 0, 6)
	if err != nil {
		return CronSpec{}, fmt.Errorf("day-of-week: %w", err)
	}

	return CronSpec{
		minute: minute,
		hour:   hour,
		dom:    dom,
		month:  month,
		dow:    dow,
	}, nil
}

// Matches reports whether t (truncated to the minute) is due.
func (s CronSpec) Matches(t time.Time) bool {
	return s.minute.has(t.Minute()) &&
		s.hour.has(t.Hour()) &&
		s.dom.has(t.Day()) &&
		s.month.has(int(t.Month())) &&
		s.dow.has(int(t.Weekday()))
}

func (f field) has(v int) bool {
	return f&(1<<uint(v)) != 0
}

func (f *field) set(v int) {
	*f |= 1 << uint(v)
}

func parseField(token string, min, max int) (field, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, fmt.Errorf("empty field")
	}

	var f field
	for _, part := range strings.Split(token, ",") {
		part = strings.TrimSpace(part)

		start, end, step := min, max, 1
		switch {
		case part == "*":
			// full range
		case strings.HasPrefix(part, "*/"):
			n, err := strconv.Atoi(strings.TrimPrefix(part, "*/"))
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("invalid step %q", part)
			}
			step = n
		case strings.Contains(part, "-"):
			ends := strings.SplitN(part, "-", 2)
			a, errA := strconv.Atoi(strings.TrimSpace(ends[0]))
			b, errB := strconv.Atoi(strings.TrimSpace(ends[1]))
			if errA != nil || errB != nil {
				return 0, fmt.Errorf("invalid range %q", part)
			}
			if a > b || a < min || b > max {
				return 0, fmt.Errorf("range out of bounds %q", part)
			}
			start, end = a, b
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("invalid value %q", part)
			}
			if v < min || v > max {
				return 0, fmt.Errorf("value out of bounds %d", v)
			}
			start, end = v, v
		}

		for v := start; v <= end; v += step {
			f.set(v)
		}
	}

	if f == 0 {
		return 0, fmt.Errorf("no values")
	}
	return f, nil
}
