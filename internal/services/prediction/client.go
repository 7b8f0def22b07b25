package prediction

import (
	"context"
	"fmt"
	"time"

	"QuantPulse/internal/domain/models"
	xhttp "QuantPulse/pkg/http"
)

const defaultTimeout = 10 * time.Second

// Client talks to the external prediction service over HTTP. The model
// itself is a black box; only its JSON contract matters here.
type Client struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

// NewClient builds a prediction client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: 2,
	}
}

type generateRequest struct {
	Symbol      string `json:"symbol"`
	HorizonDays int    `json:"horizon_days"`
}

// Generate requests a fresh prediction for one symbol.
func (c *Client) Generate(ctx context.Context, symbol string, horizonDays int) (models.Prediction, error) {
	if c.baseURL == "" {
		return models.Prediction{}, fmt.Errorf("prediction service url not configured")
	}

	var pred models.Prediction
	err := c.postJSON(ctx, "/predict", generateRequest{Symbol: symbol, HorizonDays: horizonDays}, &pred)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("generate prediction for %s: %w", symbol, err)
	}
	if pred.Symbol == "" {
		pred.Symbol = symbol
	}
	return pred, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	var err error
	for i := 1; i <= c.attempts; i++ {
		err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.baseURL + path,
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
			Body: payload,
		}, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
