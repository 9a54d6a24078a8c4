package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m10djcompany/ledgerlink/internal/config"
	"github.com/m10djcompany/ledgerlink/internal/providers/stripe/domain"
	"go.uber.org/zap"
)

// client talks to the provider's REST API directly. The wire structs
// below cover only the fields reconciliation reads.
type client struct {
	base   string
	secret string
	http   *http.Client
	log    *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) domain.Client {
	return &client{
		base:   cfg.StripeAPIBase,
		secret: cfg.StripeSecretKey,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    log.Named("stripe.client"),
	}
}

type paymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

type paymentIntentList struct {
	Data    []paymentIntent `json:"data"`
	HasMore bool            `json:"has_more"`
}

func (p paymentIntent) toConfirmation() domain.Confirmation {
	return domain.Confirmation{
		ID:       p.ID,
		Status:   p.Status,
		Amount:   p.Amount,
		Currency: p.Currency,
		Created:  time.Unix(p.Created, 0).UTC(),
		Metadata: p.Metadata,
	}
}

func (c *client) GetConfirmation(ctx context.Context, id string) (*domain.Confirmation, error) {
	body, err := c.do(ctx, "/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var intent paymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	conf := intent.toConfirmation()
	return &conf, nil
}

func (c *client) SearchSucceeded(ctx context.Context, leadID string, limit int) ([]domain.Confirmation, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("metadata['%s']:'%s' AND status:'%s'",
		domain.MetadataLeadID, leadID, domain.StatusSucceeded))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, "/v1/payment_intents/search", query)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func (c *client) ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.Confirmation, error) {
	query := url.Values{}
	query.Set("created[gte]", strconv.FormatInt(since.Unix(), 10))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, "/v1/payment_intents", query)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

func decodeList(body []byte) ([]domain.Confirmation, error) {
	var list paymentIntentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode payment intent list: %w", err)
	}
	out := make([]domain.Confirmation, 0, len(list.Data))
	for _, intent := range list.Data {
		out = append(out, intent.toConfirmation())
	}
	return out, nil
}

func (c *client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.secret == "" {
		return nil, domain.ErrNotConfigured
	}

	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("provider request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		c.log.Warn("provider unavailable",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", domain.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("stripe: unexpected status %d: %s", resp.StatusCode, body)
	}

	return body, nil
}
