// Package transport defines the request/response DTOs of the reservations API.
package transport

import (
	"time"

	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"

	"github.com/google/uuid"
)

// CreateReservationRequest is the dashboard's manual booking payload.
type CreateReservationRequest struct {
	GuestName       string `json:"guestName" validate:"required,max=200"`
	GuestEmail      string `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone      string `json:"guestPhone" validate:"omitempty,max=32"`
	Date            string `json:"date" validate:"required,max=64"`
	Time            string `json:"time" validate:"required,max=64"`
	PartySize       int    `json:"partySize" validate:"required,gt=0"`
	SpecialRequests string `json:"specialRequests" validate:"omitempty,max=2000"`
}

// UpdateReservationRequest carries partial booking changes. Absent fields are
// left untouched.
type UpdateReservationRequest struct {
	GuestName       *string `json:"guestName" validate:"omitempty,max=200"`
	GuestEmail      *string `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone      *string `json:"guestPhone" validate:"omitempty,max=32"`
	Date            *string `json:"date" validate:"omitempty,max=64"`
	Time            *string `json:"time" validate:"omitempty,max=64"`
	PartySize       *int    `json:"partySize" validate:"omitempty,gt=0"`
	SpecialRequests *string `json:"specialRequests" validate:"omitempty,max=2000"`
}

// ReservationResponse is the outward view of a reservation.
type ReservationResponse struct {
	ID               uuid.UUID `json:"id"`
	ConfirmationCode string    `json:"confirmationCode"`
	GuestName        string    `json:"guestName"`
	GuestEmail       *string   `json:"guestEmail,omitempty"`
	GuestPhone       *string   `json:"guestPhone,omitempty"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	PartySize        int       `json:"partySize"`
	SpecialRequests  *string   `json:"specialRequests,omitempty"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ToReservationResponse maps a stored reservation to its API shape.
func ToReservationResponse(r *repository.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:               r.ID,
		ConfirmationCode: r.ConfirmationCode,
		GuestName:        r.GuestName,
		GuestEmail:       r.GuestEmail,
		GuestPhone:       r.GuestPhone,
		Date:             r.Date,
		Time:             r.Time,
		PartySize:        r.PartySize,
		SpecialRequests:  r.SpecialRequests,
		Status:           r.Status,
		Source:           r.Source,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ToReservationResponses maps a list of reservations.
func ToReservationResponses(list []repository.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(list))
	for i := range list {
		out[i] = ToReservationResponse(&list[i])
	}
	return out
}

// CallLogResponse is the outward view of a call log entry.
type CallLogResponse struct {
	ID              uuid.UUID  `json:"id"`
	CallID          string     `json:"callId"`
	CallerNumber    *string    `json:"callerNumber,omitempty"`
	Status          string     `json:"status"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	Transcript      *string    `json:"transcript,omitempty"`
	RecordingRef    *string    `json:"recordingRef,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// ToCallLogResponses maps a list of call logs.
func ToCallLogResponses(list []repository.CallLog) []CallLogResponse {
	out := make([]CallLogResponse, len(list))
	for i, c := range list {
		out[i] = CallLogResponse{
			ID:              c.ID,
			CallID:          c.CallID,
			CallerNumber:    c.CallerNumber,
			Status:          c.Status,
			DurationSeconds: c.DurationSeconds,
			Transcript:      c.Transcript,
			RecordingRef:    c.RecordingRef,
			StartedAt:       c.StartedAt,
			EndedAt:         c.EndedAt,
		}
	}
	return out
}
