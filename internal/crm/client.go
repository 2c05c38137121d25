package crm

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

// Client talks to the CRM REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a new CRM API client.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetCRMAPIBaseURL(), "/"),
		apiKey:  cfg.GetCRMAPIKey(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// UpsertContactAndDeal creates or refreshes the guest contact, then attaches
// a deal to it. The two calls are one logical operation: a contact without a
// deal is useless to the pipeline, so a deal failure fails the whole upsert.
func (c *Client) UpsertContactAndDeal(ctx context.Context, tenantKey string, contact Contact, deal Deal) (string, error) {
	contactBody := map[string]any{
		"tenant": tenantKey,
		"name":   contact.Name,
		"email":  contact.Email,
		"phone":  contact.Phone,
	}
	var contactResp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts/upsert", contactBody, &contactResp); err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}

	dealBody := map[string]any{
		"tenant":    tenantKey,
		"contactId": contactResp.ID,
		"title":     deal.Title,
		"stage":     deal.Stage,
		"quantity":  deal.Amount,
		"reference": deal.Reference,
	}
	var dealResp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/deals", dealBody, &dealResp); err != nil {
		return "", fmt.Errorf("create deal: %w", err)
	}
	return dealResp.ID, nil
}

// UpdateDealStage moves the deal referenced by the confirmation code to a new
// pipeline stage. The CRM looks the deal up by reference on its side.
func (c *Client) UpdateDealStage(ctx context.Context, tenantKey, reference, stage string) error {
	body := map[string]any{
		"tenant": tenantKey,
		"stage":  stage,
	}
	path := "/deals/by-reference/" + url.PathEscape(reference) + "/stage"
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("crm api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode crm response: %w", err)
		}
	}
	return nil
}

var _ Service = (*Client)(nil)
