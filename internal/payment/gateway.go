// Package payment creates gateway orders, verifies checkout signatures and
// applies gateway webhooks to orders.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/httpclient"
)

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (GatewayOrder, error)
}

// RazorpayClient talks to the Razorpay orders API with key id/secret basic auth.
type RazorpayClient struct {
	client *httpclient.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret string, h *http.Client) (*RazorpayClient, error) {
	c, err := httpclient.New("razorpay", baseURL, keyID, keySecret, h)
	if err != nil {
		return nil, err
	}
	return &RazorpayClient{client: c}, nil
}

func (r *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (GatewayOrder, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	})
	if err != nil {
		return GatewayOrder{}, err
	}

	var out GatewayOrder
	headers := http.Header{"Content-Type": []string{"application/json"}}
	if err := r.client.DoJSON(ctx, http.MethodPost, "/v1/orders", bytes.NewReader(body), headers, &out); err != nil {
		return GatewayOrder{}, fmt.Errorf("create gateway order: %w", err)
	}
	if out.ID == "" {
		return GatewayOrder{}, fmt.Errorf("create gateway order: empty order id")
	}
	return out, nil
}
