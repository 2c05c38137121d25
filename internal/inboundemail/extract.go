package inboundemail

import (
	"strconv"
	"strings"
)

// BookingFields is what could be pulled out of a widget notification body.
type BookingFields struct {
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	Date            string
	Time            string
	PartySize       int
	SpecialRequests string
}

// Widget notification bodies are label/value lines ("Name: Ada Lovelace").
// Each target field matches a handful of label spellings seen across widgets.
var fieldLabels = map[string][]string{
	"name":     {"name", "guest name", "guest", "customer name", "customer"},
	"email":    {"email", "e-mail", "email address", "guest email"},
	"phone":    {"phone", "phone number", "telephone", "tel", "mobile"},
	"date":     {"date", "reservation date", "booking date", "arrival date"},
	"time":     {"time", "reservation time", "booking time", "arrival time"},
	"guests":   {"guests", "party size", "people", "persons", "pax", "covers", "number of guests"},
	"requests": {"special requests", "requests", "notes", "comments", "remarks"},
}

// ExtractBookingFields scans the plain-text body line by line and collects
// labeled booking fields. The first match per field wins. Missing fields stay
// zero; the caller decides what is required.
func ExtractBookingFields(body string) BookingFields {
	var fields BookingFields
	seen := map[string]bool{}

	for _, line := range strings.Split(body, "\n") {
		key, value, ok := splitLabelLine(line)
		if !ok {
			continue
		}
		field := labelField(key)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true

		switch field {
		case "name":
			fields.GuestName = value
		case "email":
			fields.GuestEmail = value
		case "phone":
			fields.GuestPhone = value
		case "date":
			fields.Date = value
		case "time":
			fields.Time = value
		case "guests":
			fields.PartySize = leadingInt(value)
		case "requests":
			fields.SpecialRequests = value
		}
	}
	return fields
}

func splitLabelLine(line string) (label, value string, ok bool) {
	line = strings.TrimSpace(line)
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], "*# ")))
	value = strings.TrimSpace(line[idx+1:])
	if label == "" || value == "" {
		return "", "", false
	}
	return label, value, true
}

func labelField(label string) string {
	for field, aliases := range fieldLabels {
		for _, alias := range aliases {
			if label == alias {
				return field
			}
		}
	}
	return ""
}

// leadingInt parses the leading digits of values like "4 guests" or "4".
func leadingInt(value string) int {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	return n
}
