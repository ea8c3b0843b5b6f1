package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var dayNumbers = map[string]int{
	"sunday": 0, "sun": 0,
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
}

// ParseDayOfWeek maps a day name to 0-6, Sunday being 0.
func ParseDayOfWeek(day string) (int, bool) {
	n, ok := dayNumbers[strings.ToLower(strings.TrimSpace(day))]
	return n, ok
}

// TimeRange is a slot in 24-hour HH:MM form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var timeRangePattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(am|pm)\s*-\s*(\d{1,2}):(\d{2})\s*(am|pm)\s*(?:\(.*\))?\s*$`)

// ParseTimeRange converts "04:00 pm-05:00 pm (Asia/Dubai)" into {16:00 17:00}.
// The timezone suffix is ignored. Anything else yields false.
func ParseTimeRange(raw string) (TimeRange, bool) {
	m := timeRangePattern.FindStringSubmatch(raw)
	if m == nil {
		return TimeRange{}, false
	}
	start, ok := to24Hour(m[1], m[2], m[3])
	if !ok {
		return TimeRange{}, false
	}
	end, ok := to24Hour(m[4], m[5], m[6])
	if !ok {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

func to24Hour(hourText, minuteText, meridiem string) (string, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute > 59 {
		return "", false
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
