package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/widyakumara/bakeshop/internal/errors"
	"github.com/widyakumara/bakeshop/internal/model"
	"github.com/widyakumara/bakeshop/pkg/config"
)

// Client implements Service against the catalog's REST/JSON API.
// Every call runs through a circuit breaker; not-found responses do not
// count as failures for the breaker. The client never retries — retry
// policy, if any, belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a catalog client for the given base URL.
func NewClient(cfg config.CatalogConfig, logger *slog.Logger) *Client {
	st := gobreaker.Settings{
		Name:        "product-catalog-cb",
		MaxRequests: 3,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.Breaker.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.Breaker.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.Breaker.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// Not-found is a business outcome, not a system failure.
			return err == nil || errors.Is(err, apperrors.ErrProductNotFound)
		},
	}
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](st),
		logger:  logger.With("component", "catalog"),
	}
}

// List returns all catalog products, newest first (server ordering).
func (c *Client) List(ctx context.Context) ([]model.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: decoding product list: %v", apperrors.ErrService, err)
	}
	return products, nil
}

// Create adds a new product to the catalog and returns the created record
// with its server-assigned ID.
func (c *Client) Create(ctx context.Context, product NewProduct) (*model.Product, error) {
	body, err := c.do(ctx, http.MethodPost, "/products", product)
	if err != nil {
		return nil, err
	}
	return decodeProduct(body)
}

// Update applies a partial patch and returns the catalog's full updated
// record, which is authoritative.
func (c *Client) Update(ctx context.Context, id string, patch ProductPatch) (*model.Product, error) {
	body, err := c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	return decodeProduct(body)
}

// Delete removes a product from the catalog.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil)
	return err
}

// BatchUpdateStock issues one stock update per product, concurrently.
// The updates are independent on the server side: when one fails, members
// that already succeeded stay applied.
func (c *Client) BatchUpdateStock(ctx context.Context, updates []StockUpdate) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, update := range updates {
		g.Go(func() error {
			payload := struct {
				Stock int `json:"stock"`
			}{Stock: update.NewStock}
			_, err := c.do(gCtx, http.MethodPut, "/products/"+url.PathEscape(update.ID)+"/stock", payload)
			if err != nil {
				return fmt.Errorf("stock update for product %s: %w", update.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// do performs a single HTTP exchange through the circuit breaker and returns
// the response body. All failures are reported as ErrService; a 404 response
// additionally wraps ErrProductNotFound.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, err := c.exec(ctx, method, path, payload)
	if err != nil && !errors.Is(err, apperrors.ErrService) {
		// Breaker-open and other non-HTTP failures still surface as ErrService.
		return nil, fmt.Errorf("%w: %v", apperrors.ErrService, err)
	}
	return body, err
}

func (c *Client) exec(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: encoding request body: %v", apperrors.ErrService, err)
			}
			reqBody = bytes.NewReader(encoded)
		}

		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%w: building request: %v", apperrors.ErrService, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v %s: %v", apperrors.ErrService, method, path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading response body: %v", apperrors.ErrService, err)
		}

		c.logger.DebugContext(ctx, "catalog request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
		)

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w: %s %s", apperrors.ErrService, apperrors.ErrProductNotFound, method, path)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, fmt.Errorf("%w: %s %s responded %d", apperrors.ErrService, method, path, resp.StatusCode)
		}
		return body, nil
	})
}

func decodeProduct(body []byte) (*model.Product, error) {
	var product model.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("%w: decoding product: %v", apperrors.ErrService, err)
	}
	return &product, nil
}
