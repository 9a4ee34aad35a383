package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/ports"
)

// Client is the HTTP client for the merchant backend's payment surface,
// implementing ports.BackendAPI for the checkout core.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// apiError matches the backend's error envelope.
type apiError struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) ports.BackendAPI {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		log:  log,
	}
}

func (c *Client) FetchPaymentConfig(ctx context.Context) (*domain.ProcessorConfig, error) {
	var cfg domain.ProcessorConfig
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&cfg).
		SetError(&apiErr).
		Get("/payment/config")
	if err != nil {
		return nil, fmt.Errorf("fetch payment config: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch payment config: %s", errorMessage(resp, apiErr))
	}

	return &cfg, nil
}

func (c *Client) CreateIntent(ctx context.Context, authToken string, req domain.CreateIntentRequest) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(authToken).
		SetBody(req).
		SetResult(&intent).
		SetError(&apiErr).
		Post("/payment/create-intent")
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create intent: %s", errorMessage(resp, apiErr))
	}

	return &intent, nil
}

func (c *Client) ConfirmIntent(ctx context.Context, authToken string, intentID string) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(authToken).
		SetBody(domain.ConfirmRequest{PaymentIntentID: intentID}).
		SetResult(&intent).
		SetError(&apiErr).
		Post("/payment/confirm")
	if err != nil {
		return nil, fmt.Errorf("confirm intent: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("confirm intent: %s", errorMessage(resp, apiErr))
	}

	return &intent, nil
}

func errorMessage(resp *resty.Response, apiErr apiError) string {
	if apiErr.Error != "" {
		return apiErr.Error
	}
	return resp.Status()
}
