package variable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client pushes and pulls whole snapshots against one table of the
// variable distribution service. Push is atomic at the service: either
// the full snapshot replaces the previous one or nothing does. There is
// no partial-key push.
type Client struct {
	baseURL string
	table   string
	client  *http.Client
}

// NewClient returns a client for the given service address and table.
// An empty table selects the run's well-known table.
func NewClient(baseURL, table string) *Client {
	if table == "" {
		table = DefaultTable
	}
	return &Client{
		baseURL: baseURL,
		table:   table,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Push publishes the snapshot. It must be invoked only after TrainStep
// and ModelID have reached their final values for the completed
// iteration. Re-pushing identical values is harmless. An unreachable
// service is an error the caller treats as fatal.
func (c *Client) Push(ctx context.Context, s Snapshot) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("push: %v", err)
	}

	url := fmt.Sprintf("%s/tables/%s/variables", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url,
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("push: service returned %v", resp.Status)
	}
	return nil
}

// Pull fetches the current snapshot from the service.
func (c *Client) Pull(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("%s/tables/%s/variables", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("pull: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("pull: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Snapshot{}, fmt.Errorf("pull: no snapshot pushed to table %v",
			c.table)
	}
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("pull: service returned %v", resp.Status)
	}

	var s Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("pull: %v", err)
	}
	return s, nil
}
