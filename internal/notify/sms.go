package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/httpclient"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TwilioSender posts to the Twilio Messages REST resource.
type TwilioSender struct {
	client     *httpclient.Client
	accountSID string
	from       string
}

func NewTwilioSender(baseURL, accountSID, authToken, from string, h *http.Client) (*TwilioSender, error) {
	c, err := httpclient.New("twilio", baseURL, accountSID, authToken, h)
	if err != nil {
		return nil, err
	}
	return &TwilioSender{client: c, accountSID: accountSID, from: from}, nil
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, message string) error {
	if t == nil || t.accountSID == "" || t.from == "" {
		return ErrNotConfigured
	}
	form := url.Values{}
	form.Set("To", e164(to))
	form.Set("From", t.from)
	form.Set("Body", message)

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", url.PathEscape(t.accountSID))
	if err := t.client.DoJSON(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), headers, &resp); err != nil {
		return err
	}
	return nil
}

// e164 prefixes bare 10 digit Indian numbers with +91.
func e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	if len(phone) == 10 {
		return "+91" + phone
	}
	return phone
}
