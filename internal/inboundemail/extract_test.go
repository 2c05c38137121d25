package inboundemail

import "testing"

func TestExtractBookingFields(t *testing.T) {
	body := `New reservation from your booking widget!

Name: Ada Lovelace
Date: 2026-09-12
Time: 19:30
Guests: 4 people
Email: ada@example.com
Phone: +15551234567
Special requests: window table

Sent by WidgetCo`

	fields := ExtractBookingFields(body)

	if fields.GuestName != "Ada Lovelace" {
		t.Errorf("name: got %q", fields.GuestName)
	}
	if fields.Date != "2026-09-12" || fields.Time != "19:30" {
		t.Errorf("slot: got %q %q", fields.Date, fields.Time)
	}
	if fields.PartySize != 4 {
		t.Errorf("party size: got %d", fields.PartySize)
	}
	if fields.GuestEmail != "ada@example.com" || fields.GuestPhone != "+15551234567" {
		t.Errorf("contact: got %q %q", fields.GuestEmail, fields.GuestPhone)
	}
	if fields.SpecialRequests != "window table" {
		t.Errorf("requests: got %q", fields.SpecialRequests)
	}
}

func TestExtractBookingFieldsAlternateLabels(t *testing.T) {
	body := "Customer name: Bob\nBooking date: 2026-10-01\nArrival time: 18:00\nPax: 2"

	fields := ExtractBookingFields(body)
	if fields.GuestName != "Bob" || fields.Date != "2026-10-01" || fields.Time != "18:00" || fields.PartySize != 2 {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestExtractBookingFieldsFirstMatchWins(t *testing.T) {
	body := "Name: First\nName: Second"
	if got := ExtractBookingFields(body).GuestName; got != "First" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBookingFieldsIgnoresUnlabeledText(t *testing.T) {
	fields := ExtractBookingFields("Hello there, please book me a table tomorrow at eight.")
	if fields != (BookingFields{}) {
		t.Errorf("expected zero fields, got %+v", fields)
	}
}
