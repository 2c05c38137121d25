package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

const rfc3339Millis = "2006-01-02T15:04:05.000Z07:00"

// credential is the decoded form of the opaque per-tenant blob.
type credential struct {
	AccessToken string `json:"access_token"`
	CalendarID  string `json:"calendar_id"`
}

// Client talks to a Google-Calendar-shaped events/freeBusy API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a new calendar API client.
func NewClient(cfg config.CalendarConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetCalendarAPIBaseURL(), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func decodeCredential(blob []byte) (credential, error) {
	var cred credential
	if err := json.Unmarshal(blob, &cred); err != nil {
		return credential{}, fmt.Errorf("decode calendar credential: %w", err)
	}
	if cred.AccessToken == "" {
		return credential{}, fmt.Errorf("calendar credential has no access token")
	}
	if cred.CalendarID == "" {
		cred.CalendarID = "primary"
	}
	return cred, nil
}

type eventPayload struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Start       eventTimePayload `json:"start"`
	End         eventTimePayload `json:"end"`
}

type eventTimePayload struct {
	DateTime string `json:"dateTime"`
}

func buildEventPayload(event EventInput) eventPayload {
	return eventPayload{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTimePayload{DateTime: event.Start.Format(rfc3339Millis)},
		End:         eventTimePayload{DateTime: event.End.Format(rfc3339Millis)},
	}
}

// CreateEvent creates an event in the tenant's calendar and returns its id.
func (c *Client) CreateEvent(ctx context.Context, blob []byte, event EventInput) (string, error) {
	cred, err := decodeCredential(blob)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(cred.CalendarID))
	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, cred, http.MethodPost, endpoint, buildEventPayload(event), &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// UpdateEvent patches an existing event.
func (c *Client) UpdateEvent(ctx context.Context, blob []byte, eventID string, event EventInput) error {
	cred, err := decodeCredential(blob)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		c.baseURL, url.PathEscape(cred.CalendarID), url.PathEscape(eventID))
	return c.do(ctx, cred, http.MethodPatch, endpoint, buildEventPayload(event), nil)
}

// DeleteEvent removes an event. A 404/410 from the API is treated as success:
// the event is already gone.
func (c *Client) DeleteEvent(ctx context.Context, blob []byte, eventID string) error {
	cred, err := decodeCredential(blob)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		c.baseURL, url.PathEscape(cred.CalendarID), url.PathEscape(eventID))

	err = c.do(ctx, cred, http.MethodDelete, endpoint, nil, nil)
	if apiErr, ok := err.(*apiError); ok && (apiErr.status == http.StatusNotFound || apiErr.status == http.StatusGone) {
		return nil
	}
	return err
}

// QueryBusy returns busy intervals overlapping the window via the freeBusy API.
func (c *Client) QueryBusy(ctx context.Context, blob []byte, windowStart, windowEnd time.Time) ([]BusyInterval, error) {
	cred, err := decodeCredential(blob)
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"timeMin": windowStart.Format(rfc3339Millis),
		"timeMax": windowEnd.Format(rfc3339Millis),
		"items":   []map[string]string{{"id": cred.CalendarID}},
	}

	var result struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err := c.do(ctx, cred, http.MethodPost, c.baseURL+"/freeBusy", request, &result); err != nil {
		return nil, err
	}

	intervals := make([]BusyInterval, 0)
	for _, cal := range result.Calendars {
		for _, busy := range cal.Busy {
			intervals = append(intervals, BusyInterval{Start: busy.Start, End: busy.End})
		}
	}
	return intervals, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("calendar api returned %d: %s", e.status, e.body)
}

func (c *Client) do(ctx context.Context, cred credential, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal calendar payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode calendar response: %w", err)
		}
	}
	return nil
}

// Compile-time check that Client implements Service.
var _ Service = (*Client)(nil)
