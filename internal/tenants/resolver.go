package tenants

import (
	"context"

	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

// Keys is the identifier bundle an inbound event carries. Any subset of the
// fields may be set; empty strings mean absent.
type Keys struct {
	PhoneNumberID string
	PhoneNumber   string
	AssistantID   string
}

// Finder is the subset of the tenant repository the resolver needs.
type Finder interface {
	GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*Tenant, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*Tenant, error)
	GetByAssistantID(ctx context.Context, assistantID string) (*Tenant, error)
}

// Resolver maps an inbound identifier bundle to a tenant record via a
// fallback chain over the imperfect keys the channels supply.
type Resolver struct {
	repo Finder
	log  *logger.Logger
}

// NewResolver creates a new tenant resolver.
func NewResolver(repo Finder, log *logger.Logger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

// Resolve tries each supplied key in precedence order and returns the first
// hit. Tool-call and function-call events carry an assistant id rather than
// a phone id, so a present assistant id is tried first; otherwise phone
// number id wins over the phone number string. Exactly one successful lookup
// wins; partial matches are never merged.
//
// A nil tenant with apperr.NotFound is a normal, loggable outcome, not a
// fault: callers must handle it without alarming.
func (r *Resolver) Resolve(ctx context.Context, keys Keys) (*Tenant, error) {
	if keys.AssistantID != "" {
		if tenant, err := r.repo.GetByAssistantID(ctx, keys.AssistantID); err == nil {
			return tenant, nil
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
	}

	if keys.PhoneNumberID != "" {
		if tenant, err := r.repo.GetByPhoneNumberID(ctx, keys.PhoneNumberID); err == nil {
			return tenant, nil
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
	}

	if keys.PhoneNumber != "" {
		if tenant, err := r.repo.GetByPhoneNumber(ctx, keys.PhoneNumber); err == nil {
			return tenant, nil
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
	}

	r.log.Info("tenant resolution failed",
		"phone_number_id", keys.PhoneNumberID,
		"phone_number", keys.PhoneNumber,
		"assistant_id", keys.AssistantID,
	)
	return nil, apperr.NotFound("no tenant matches the supplied identifiers")
}

// ResolveByAssistantID performs a single assistant-id lookup with no
// fallback. The legacy single-call webhook path carries only this key and
// must not fall back to phone-based lookups.
func (r *Resolver) ResolveByAssistantID(ctx context.Context, assistantID string) (*Tenant, error) {
	if assistantID == "" {
		return nil, apperr.NotFound("no assistant id supplied")
	}
	return r.repo.GetByAssistantID(ctx, assistantID)
}
