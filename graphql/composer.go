package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
)

// Composer executes queries against the Guppy GraphQL endpoint: the main
// subject query plus the per-group aggregation queries, the latter fanned
// out concurrently.
type Composer struct {
	endpoint string
	client   *http.Client
	metrics  *metric.Metrics
	logger   *slog.Logger
}

// NewComposer creates a composer for the given Guppy endpoint. metrics may
// be nil.
func NewComposer(endpoint string, timeout time.Duration, metrics *metric.Metrics, logger *slog.Logger) *Composer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		metrics:  metrics,
		logger:   logger.With("component", "QueryComposer"),
	}
}

// graphqlResponse is the standard GraphQL-over-HTTP response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Execute runs one query and returns the response's data payload.
func (c *Composer) Execute(ctx context.Context, query *Query) (json.RawMessage, error) {
	return c.execute(ctx, "subject", query)
}

// ExecuteAggregations runs all group queries concurrently and returns the
// data payload per group. The first failure cancels the remaining calls.
func (c *Composer) ExecuteAggregations(ctx context.Context, queries map[string]*Query) (map[string]json.RawMessage, error) {
	results := make(map[string]json.RawMessage, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for group, query := range queries {
		group, query := group, query
		g.Go(func() error {
			data, err := c.execute(gctx, "aggregation", query)
			if err != nil {
				return fmt.Errorf("group %s: %w", group, err)
			}
			mu.Lock()
			results[group] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Composer) execute(ctx context.Context, kind string, query *Query) (json.RawMessage, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "QueryComposer", "execute", "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "QueryComposer", "execute", "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.recordQuery(kind, "error", start)
		return nil, errors.WrapTransient(err, "QueryComposer", "execute", "post to guppy")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		c.recordQuery(kind, "error", start)
		return nil, errors.WrapTransient(err, "QueryComposer", "execute", "read response")
	}
	if resp.StatusCode != http.StatusOK {
		c.recordQuery(kind, "error", start)
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: guppy returned status %d", errors.ErrExecutionFailed, resp.StatusCode),
			"QueryComposer", "execute", "check status")
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.recordQuery(kind, "error", start)
		return nil, errors.WrapInvalid(err, "QueryComposer", "execute", "decode response")
	}
	if len(envelope.Errors) > 0 {
		c.recordQuery(kind, "error", start)
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrExecutionFailed, envelope.Errors[0].Message),
			"QueryComposer", "execute", "evaluate graphql errors")
	}

	c.recordQuery(kind, "success", start)
	return envelope.Data, nil
}

func (c *Composer) recordQuery(kind, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.GuppyQueries.WithLabelValues(kind, status).Inc()
	c.metrics.GuppyQueryDuration.Observe(time.Since(start).Seconds())
}
