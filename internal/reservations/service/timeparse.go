package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	time12Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*([AaPp][Mm])$`)
	time24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// NormalizeTime converts a spoken-style time of day into 24-hour HH:MM.
// 24-hour input passes through untouched; 12-hour input is converted
// (12 AM becomes 00, PM hours 1-11 add 12). Anything unparseable is returned
// as-is: the intake boundary is deliberately lenient and rejection happens
// nowhere in the time path.
func NormalizeTime(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if m := time12Pattern.FindStringSubmatch(trimmed); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour < 1 || hour > 12 {
			return raw
		}
		meridiem := strings.ToUpper(m[3])
		if meridiem == "AM" && hour == 12 {
			hour = 0
		} else if meridiem == "PM" && hour != 12 {
			hour += 12
		}
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	if time24Pattern.MatchString(trimmed) {
		return trimmed
	}
	return raw
}
