package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sms-platform/internal/config"
)

const maxErrorBody = 512

// LaMLClient talks to the Twilio-compatible REST API served by Twilio and SignalWire.
type LaMLClient struct {
	name       string
	baseURL    string
	accountSID string
	authToken  string
	http       *http.Client
}

// NewLaMLClient builds the client for the configured provider.
func NewLaMLClient(cfg config.TelephonyConfig) *LaMLClient {
	var base string
	switch cfg.Provider {
	case "signalwire":
		space := strings.TrimPrefix(strings.TrimPrefix(cfg.SpaceURL, "https://"), "http://")
		base = "https://" + strings.TrimRight(space, "/") + "/api/laml/2010-04-01/Accounts/" + cfg.AccountSID
	default:
		base = "https://api.twilio.com/2010-04-01/Accounts/" + cfg.AccountSID
	}
	return NewLaMLClientWithBase(cfg.Provider, base, cfg.AccountSID, cfg.AuthToken, &http.Client{Timeout: cfg.HTTPTimeout})
}

// NewLaMLClientWithBase is used by tests to point the client at an httptest server.
func NewLaMLClientWithBase(name, baseURL, accountSID, authToken string, hc *http.Client) *LaMLClient {
	if name == "" {
		name = "twilio"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &LaMLClient{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		http:       hc,
	}
}

func (c *LaMLClient) Name() string { return c.name }

func (c *LaMLClient) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, ".json", nil, nil)
}

func (c *LaMLClient) SendSMS(ctx context.Context, req SendRequest) (SendResult, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Body", req.Body)
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
	}

	var out struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/Messages.json", form, &out); err != nil {
		return SendResult{}, err
	}
	return SendResult{SID: out.SID, Status: out.Status}, nil
}

func (c *LaMLClient) SearchNumbers(ctx context.Context, req SearchRequest) ([]string, error) {
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = "US"
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("SmsEnabled", "true")
	q.Set("PageSize", strconv.Itoa(limit))
	if region := strings.ToUpper(strings.TrimSpace(req.Region)); region != "" {
		q.Set("InRegion", region)
	}

	var out struct {
		Available []struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"available_phone_numbers"`
	}
	path := "/AvailablePhoneNumbers/" + url.PathEscape(country) + "/Local.json?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(out.Available))
	numbers := make([]string, 0, len(out.Available))
	for _, a := range out.Available {
		if a.PhoneNumber == "" {
			continue
		}
		if _, dup := seen[a.PhoneNumber]; dup {
			continue
		}
		seen[a.PhoneNumber] = struct{}{}
		numbers = append(numbers, a.PhoneNumber)
	}
	return numbers, nil
}

func (c *LaMLClient) BuyNumber(ctx context.Context, phoneNumber string) (BuyResult, error) {
	form := url.Values{}
	form.Set("PhoneNumber", phoneNumber)
	form.Set("FriendlyName", "Number for SMS")

	var out struct {
		SID         string `json:"sid"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.do(ctx, http.MethodPost, "/IncomingPhoneNumbers.json", form, &out); err != nil {
		return BuyResult{}, err
	}
	if out.PhoneNumber == "" {
		out.PhoneNumber = phoneNumber
	}
	return BuyResult{PhoneNumber: out.PhoneNumber, ProviderID: out.SID}, nil
}

func (c *LaMLClient) ReleaseNumber(ctx context.Context, providerID string) error {
	if providerID == "" {
		return fmt.Errorf("telephony: release requires a provider id")
	}
	return c.do(ctx, http.MethodDelete, "/IncomingPhoneNumbers/"+url.PathEscape(providerID)+".json", nil, nil)
}

func (c *LaMLClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if c.accountSID == "" || c.authToken == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ProviderError{Provider: c.name, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", c.name, err)
	}
	return nil
}
