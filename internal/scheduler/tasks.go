// Package scheduler delivers reservation reminders through delayed asynq
// tasks on Redis.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskReservationReminder = "reservations.reminder"

// ReservationReminderPayload identifies the reservation to remind about. The
// worker re-reads the row at delivery time; a reservation cancelled in the
// meantime silently drops the reminder.
type ReservationReminderPayload struct {
	TenantID         string `json:"tenantId"`
	ConfirmationCode string `json:"confirmationCode"`
}

func NewReservationReminderTask(payload ReservationReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationReminder, data), nil
}

func ParseReservationReminderPayload(task *asynq.Task) (ReservationReminderPayload, error) {
	var payload ReservationReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReservationReminderPayload{}, err
	}
	return payload, nil
}
