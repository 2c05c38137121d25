package inboundemail

import (
	"testing"

	"github.com/emmanuel582/backendtablenow/platform/apperr"

	"github.com/google/uuid"
)

func TestExtractTenantID(t *testing.T) {
	tenantID := uuid.MustParse("3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9e111")

	tests := []struct {
		name    string
		to      string
		want    uuid.UUID
		wantErr bool
	}{
		{
			name: "plain address",
			to:   "bookings-3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9e111@tablenow.example",
			want: tenantID,
		},
		{
			name: "display name with angle brackets",
			to:   `"TableNow Bookings" <bookings-3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9e111@tablenow.example>`,
			want: tenantID,
		},
		{
			name: "multi-dash label before the id",
			to:   "widget-eu-west-3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9e111@tablenow.example",
			want: tenantID,
		},
		{
			name:    "no tenant id in local part",
			to:      "bookings@tablenow.example",
			wantErr: true,
		},
		{
			name:    "id not preceded by a dash",
			to:      "x3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9e111@tablenow.example",
			wantErr: true,
		},
		{
			name:    "malformed uuid",
			to:      "bookings-3f1d7a4e-9a55-4c7e-8b1f-2f64c0a9ZZZZ@tablenow.example",
			wantErr: true,
		},
		{
			name:    "not an email address",
			to:      "just a string",
			wantErr: true,
		},
		{
			name:    "empty",
			to:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTenantID(tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !apperr.Is(err, apperr.KindBadRequest) {
					t.Errorf("expected bad-request kind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
