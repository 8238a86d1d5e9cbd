package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/imSanko/circuit-training/timestep"
)

// pollInterval is how often a blocked client re-checks the table.
const pollInterval = 50 * time.Millisecond

// Client is the learner-side view of one table of the trajectory
// buffer service. Actors use the same service through Write; the
// learner uses WaitForData, Fetch and Clear.
type Client struct {
	baseURL string
	table   string
	client  *http.Client
}

// NewClient returns a client for the given service address and table.
// An empty table selects the run's training table.
func NewClient(baseURL, table string) *Client {
	if table == "" {
		table = DefaultTable
	}
	return &Client{
		baseURL: baseURL,
		table:   table,
		// The client blocks on table state through polling, not
		// long-lived requests, so individual calls stay short.
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Count returns the number of trajectories in the current window and
// the table generation.
func (c *Client) Count(ctx context.Context) (int, uint64, error) {
	url := fmt.Sprintf("%s/tables/%s/count", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("count: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("count: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("count: service returned %v", resp.Status)
	}

	var payload CountResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("count: %v", err)
	}
	return payload.Count, payload.Generation, nil
}

// WaitForData blocks until the table holds at least one trajectory and
// returns how long the wait took. The latency is diagnostic only:
// fetching for training blocks for data sufficiency on its own and
// does not depend on this call having been made.
func (c *Client) WaitForData(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	for {
		count, _, err := c.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("waitForData: %v", err)
		}
		if count > 0 {
			return time.Since(start), nil
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("waitForData: %v", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// Fetch blocks until the table holds at least episodes trajectories
// collected in the current window, then returns exactly that many in
// insertion order. There is no default timeout; cancellation comes
// from the context.
func (c *Client) Fetch(ctx context.Context, episodes int) ([]timestep.Trajectory, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("fetch: episodes must be > 0")
	}

	for {
		count, _, err := c.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch: %v", err)
		}
		if count >= episodes {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch: %v", ctx.Err())
		case <-time.After(pollInterval):
		}
	}

	url := fmt.Sprintf("%s/tables/%s/trajectories?limit=%d", c.baseURL,
		c.table, episodes)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: service returned %v", resp.Status)
	}

	var payload ReadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch: %v", err)
	}
	return payload.Trajectories, nil
}

// Write appends trajectories to the table. This is the actor-side
// operation.
func (c *Client) Write(ctx context.Context, trajectories []timestep.Trajectory) error {
	payload := WriteRequest{
		SentAtMs:     time.Now().UnixMilli(),
		Trajectories: trajectories,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("write: %v", err)
	}

	url := fmt.Sprintf("%s/tables/%s/trajectories", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("write: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("write: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("write: service returned %v", resp.Status)
	}
	return nil
}

// Clear removes every trajectory from the table. It must be called
// exactly once per iteration, after training on that iteration's data
// completes and before the next iteration begins reading.
func (c *Client) Clear(ctx context.Context) error {
	url := fmt.Sprintf("%s/tables/%s/clear", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("clear: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("clear: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear: service returned %v", resp.Status)
	}
	return nil
}
