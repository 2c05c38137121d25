package tenants

import (
	"context"
	"testing"

	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
)

type fakeFinder struct {
	byPhoneNumberID map[string]*Tenant
	byPhoneNumber   map[string]*Tenant
	byAssistantID   map[string]*Tenant
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{
		byPhoneNumberID: map[string]*Tenant{},
		byPhoneNumber:   map[string]*Tenant{},
		byAssistantID:   map[string]*Tenant{},
	}
}

func (f *fakeFinder) GetByPhoneNumberID(_ context.Context, key string) (*Tenant, error) {
	if t, ok := f.byPhoneNumberID[key]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tenant not found")
}

func (f *fakeFinder) GetByPhoneNumber(_ context.Context, key string) (*Tenant, error) {
	if t, ok := f.byPhoneNumber[key]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tenant not found")
}

func (f *fakeFinder) GetByAssistantID(_ context.Context, key string) (*Tenant, error) {
	if t, ok := f.byAssistantID[key]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tenant not found")
}

func TestResolvePrefersPhoneNumberIDOverPhoneNumber(t *testing.T) {
	finder := newFakeFinder()
	first := &Tenant{ID: uuid.New(), Name: "Trattoria Uno"}
	second := &Tenant{ID: uuid.New(), Name: "Imposter"}

	// Both tenants erroneously share the same number; the id lookup must win.
	finder.byPhoneNumberID["P1"] = first
	finder.byPhoneNumber["+15551234567"] = second

	resolver := NewResolver(finder, logger.New("development"))
	got, err := resolver.Resolve(context.Background(), Keys{
		PhoneNumberID: "P1",
		PhoneNumber:   "+15551234567",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("expected tenant %s, got %s", first.Name, got.Name)
	}
}

func TestResolveAssistantIDTakesPrecedence(t *testing.T) {
	finder := newFakeFinder()
	byAssistant := &Tenant{ID: uuid.New(), Name: "Assistant Match"}
	byPhoneID := &Tenant{ID: uuid.New(), Name: "Phone Match"}
	finder.byAssistantID["A1"] = byAssistant
	finder.byPhoneNumberID["P1"] = byPhoneID

	resolver := NewResolver(finder, logger.New("development"))
	got, err := resolver.Resolve(context.Background(), Keys{
		PhoneNumberID: "P1",
		AssistantID:   "A1",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.ID != byAssistant.ID {
		t.Fatalf("expected assistant-id match to win, got %s", got.Name)
	}
}

func TestResolveFallsBackThroughChain(t *testing.T) {
	finder := newFakeFinder()
	tenant := &Tenant{ID: uuid.New(), Name: "Number Match"}
	finder.byPhoneNumber["+15557654321"] = tenant

	resolver := NewResolver(finder, logger.New("development"))
	got, err := resolver.Resolve(context.Background(), Keys{
		PhoneNumberID: "missing",
		PhoneNumber:   "+15557654321",
		AssistantID:   "also-missing",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.ID != tenant.ID {
		t.Fatalf("expected phone-number fallback match, got %s", got.Name)
	}
}

func TestResolveReturnsNotFoundWhenAllKeysMiss(t *testing.T) {
	resolver := NewResolver(newFakeFinder(), logger.New("development"))

	_, err := resolver.Resolve(context.Background(), Keys{PhoneNumber: "+10000000000"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = resolver.Resolve(context.Background(), Keys{})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound for empty keys, got %v", err)
	}
}

func TestResolveByAssistantIDHasNoFallback(t *testing.T) {
	finder := newFakeFinder()
	finder.byPhoneNumber["+15551112222"] = &Tenant{ID: uuid.New()}

	resolver := NewResolver(finder, logger.New("development"))
	_, err := resolver.ResolveByAssistantID(context.Background(), "unknown")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound without fallback, got %v", err)
	}
}
