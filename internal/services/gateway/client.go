package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	// baseURL is the base url of the payment provider API.
	baseURL string

	// secretKey authenticates every outbound request as a bearer token.
	secretKey string

	// callbackURL is where the provider redirects the buyer after payment.
	callbackURL string

	// hc is the http client.
	hc *http.Client
}

func newClient(c *Config) *Client {
	return &Client{
		baseURL:     c.BaseURL,
		secretKey:   c.SecretKey,
		callbackURL: c.CallbackURL,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gateway: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gateway: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s", _baseURL.String(), path), nil)
	if err != nil {
		return fmt.Errorf("gateway: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("gateway: resp.StatusCode: 401 => Unauthorized")
	}

	var reply envelope
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return fmt.Errorf("gateway: json.Decode: %w", err)
	}
	if !reply.Status {
		return fmt.Errorf("gateway: reply.Status: false, reply.Message: %v", reply.Message)
	}

	if err := json.Unmarshal(reply.Data, out); err != nil {
		return fmt.Errorf("gateway: json.Unmarshal data: %w", err)
	}
	return nil
}

func (c *Client) initializeCheckout(ctx context.Context, f *CheckoutRequest) (*Checkout, error) {
	body := struct {
		Reference   string          `json:"reference"`
		Email       string          `json:"email"`
		Amount      decimal.Decimal `json:"amount"`
		CallbackURL string          `json:"callback_url"`
		Metadata    Metadata        `json:"metadata"`
	}{
		Reference:   f.Reference,
		Email:       f.Email,
		Amount:      f.Amount,
		CallbackURL: c.callbackURL,
		Metadata:    f.Metadata,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := c.post(ctx, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("initializeCheckout: %w", err)
	}

	return &Checkout{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *Client) verifyTransaction(ctx context.Context, reference string) (*VerifiedTransaction, error) {
	var data struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		PaidAt    string          `json:"paid_at"`
	}
	if err := c.get(ctx, fmt.Sprintf("/transaction/verify/%s", url.PathEscape(reference)), &data); err != nil {
		return nil, fmt.Errorf("verifyTransaction: %w", err)
	}

	return &VerifiedTransaction{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    data.Amount,
		Currency:  data.Currency,
		PaidAt:    data.PaidAt,
	}, nil
}
