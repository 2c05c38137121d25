// Package crm defines the CRM collaborator used to mirror guests and
// reservations into the tenant's sales pipeline.
package crm

import "context"

// Contact identifies a guest in the CRM.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Deal mirrors one reservation as a pipeline deal.
type Deal struct {
	Title     string
	Stage     string
	Amount    int // party size, used as the deal quantity
	Reference string
}

// Pipeline stages a reservation deal moves through.
const (
	StageBooked    = "booked"
	StageUpdated   = "updated"
	StageCancelled = "cancelled"
)

// Service is the CRM capability consumed by the side-effect coordinator.
type Service interface {
	// UpsertContactAndDeal creates or refreshes the guest contact and attaches
	// a new deal to it, returning the deal id.
	UpsertContactAndDeal(ctx context.Context, tenantKey string, contact Contact, deal Deal) (string, error)
	// UpdateDealStage moves the deal referenced by the confirmation code to a
	// new pipeline stage.
	UpdateDealStage(ctx context.Context, tenantKey, reference, stage string) error
}
