package replay

import (
	"testing"

	"github.com/imSanko/circuit-training/timestep"
)

func TestBroadcastInfoAlignsWithSequence(t *testing.T) {
	traj := makeTrajectory("a", 0, 6)
	traj.Info = timestep.Info{Priority: 0.5, ModelID: 3}

	info := BroadcastInfo(&traj)

	shape := info.Shape()
	if shape[0] != 6 || shape[1] != timestep.InfoSize {
		t.Fatalf("info shape = %v, want [6 %v]", shape, timestep.InfoSize)
	}

	backing := info.Data().([]float64)
	for i := 0; i < 6; i++ {
		priority := backing[i*timestep.InfoSize]
		modelID := backing[i*timestep.InfoSize+1]
		if priority != 0.5 || modelID != 3 {
			t.Errorf("step %v info = (%v, %v), want (0.5, 3)", i, priority,
				modelID)
		}
	}
}

func TestBatchStreamYieldsEachTrajectoryOnce(t *testing.T) {
	trajs := []timestep.Trajectory{
		makeTrajectory("a", 0, 4),
		makeTrajectory("a", 1, 4),
		makeTrajectory("a", 2, 4),
		makeTrajectory("a", 3, 4),
		makeTrajectory("a", 4, 4),
	}

	stream, err := NewBatchStream(trajs, 3, 17)
	if err != nil {
		t.Fatalf("newBatchStream: %v", err)
	}

	seen := make(map[int]int)
	for {
		batch, ok := stream.Next()
		if !ok {
			break
		}
		seen[batch.Trajectory.EpisodeID]++
	}

	if len(seen) != len(trajs) {
		t.Fatalf("stream yielded %v distinct episodes, want %v", len(seen),
			len(trajs))
	}
	for episode, count := range seen {
		if count != 1 {
			t.Errorf("episode %v yielded %v times, want 1", episode, count)
		}
	}
}

// A shuffle window of one episode must preserve insertion order.
func TestBatchStreamWindowOnePreservesOrder(t *testing.T) {
	trajs := []timestep.Trajectory{
		makeTrajectory("a", 0, 4),
		makeTrajectory("a", 1, 4),
		makeTrajectory("a", 2, 4),
	}

	stream, err := NewBatchStream(trajs, 1, 99)
	if err != nil {
		t.Fatalf("newBatchStream: %v", err)
	}

	for want := 0; ; want++ {
		batch, ok := stream.Next()
		if !ok {
			break
		}
		if batch.Trajectory.EpisodeID != want {
			t.Errorf("position %v yielded episode %v", want,
				batch.Trajectory.EpisodeID)
		}
	}
}

func TestBatchStreamRejectsBadWindow(t *testing.T) {
	for _, window := range []int{0, -1, 4} {
		if _, err := NewBatchStream(nil, window, 1); err == nil {
			t.Errorf("window %v accepted, want error", window)
		}
	}
}
