package replay

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imSanko/circuit-training/timestep"
)

func trajectories(ts ...timestep.Trajectory) []timestep.Trajectory {
	return ts
}

func newTestService(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(NewHandler().Router())
	t.Cleanup(server.Close)
	return server, NewClient(server.URL, "")
}

func TestWriteFetchRoundTrip(t *testing.T) {
	_, client := newTestService(t)
	ctx := context.Background()

	want := makeTrajectory("actor-1", 7, 10)
	if err := client.Write(ctx, trajectories(want)); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := client.Fetch(ctx, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("fetch returned %v trajectories, want 1", len(got))
	}
	if got[0].ActorID != "actor-1" || got[0].EpisodeID != 7 {
		t.Errorf("fetched wrong trajectory: %v/%v", got[0].ActorID,
			got[0].EpisodeID)
	}
	if got[0].Len() != 10 {
		t.Errorf("fetched trajectory has %v steps, want 10", got[0].Len())
	}
}

// Fetch must block until the table holds the requested number of
// episodes, not return a partial read.
func TestFetchBlocksUntilSufficientData(t *testing.T) {
	_, client := newTestService(t)
	ctx := context.Background()

	if err := client.Write(ctx, trajectories(makeTrajectory("a", 0, 4))); err != nil {
		t.Fatalf("write: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := client.Fetch(ctx, 2)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("fetch returned before data was sufficient: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	if err := client.Write(ctx, trajectories(makeTrajectory("a", 1, 4))); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after data became sufficient")
	}
}

// With a producer that never writes, waiting must block until the
// context is cancelled rather than proceed.
func TestWaitForDataBlocksWithoutProducer(t *testing.T) {
	_, client := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(),
		200*time.Millisecond)
	defer cancel()

	_, err := client.WaitForData(ctx)
	if err == nil {
		t.Fatal("waitForData returned without any data written")
	}
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", ctx.Err())
	}
}

func TestWaitForDataReportsLatency(t *testing.T) {
	_, client := newTestService(t)
	ctx := context.Background()

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = client.Write(ctx, trajectories(makeTrajectory("a", 0, 4)))
	}()

	latency, err := client.WaitForData(ctx)
	if err != nil {
		t.Fatalf("waitForData: %v", err)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want > 0", latency)
	}
}

func TestClearEmptiesTable(t *testing.T) {
	_, client := newTestService(t)
	ctx := context.Background()

	if err := client.Write(ctx, trajectories(makeTrajectory("a", 0, 4))); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := client.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	count, generation, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %v after clear, want 0", count)
	}
	if generation != 1 {
		t.Errorf("generation = %v after clear, want 1", generation)
	}
}
