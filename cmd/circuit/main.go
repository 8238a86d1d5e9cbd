// The circuit command runs the processes of the distributed training
// system: the learner loop, experience-producing actors, and the
// replay and variable services they communicate through.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/imSanko/circuit-training/actor"
	"github.com/imSanko/circuit-training/agent/reinforce"
	"github.com/imSanko/circuit-training/environment/cartpole"
	"github.com/imSanko/circuit-training/learner"
	"github.com/imSanko/circuit-training/replay"
	"github.com/imSanko/circuit-training/variable"
)

const (
	defaultReplayAddr   = "http://localhost:9001"
	defaultVariableAddr = "http://localhost:9002"
)

func main() {
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd := &cobra.Command{
		Use:   "circuit",
		Short: "Distributed on-policy training over replay and variable services",
	}
	rootCmd.AddCommand(trainCmd(), actorCmd(), replayServerCmd(),
		variableServerCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func trainCmd() *cobra.Command {
	var conf learner.Config
	var learningRate, valueLearningRate, gamma, lambda float64
	var seed uint64

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the learner's training loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Seed = seed
			agentConf := reinforce.Config{
				FeatureSize:       cartpole.FeatureSize,
				Actions:           cartpole.Actions,
				LearningRate:      learningRate,
				ValueLearningRate: valueLearningRate,
				Gamma:             gamma,
				Lambda:            lambda,
				Seed:              seed,
			}
			ag, err := agentConf.Create()
			if err != nil {
				return err
			}

			loop, err := learner.NewLoop(conf, ag)
			if err != nil {
				return err
			}
			log.Printf("training from iteration %v", loop.InitIteration())

			ctx, cancel := signalContext()
			defer cancel()
			return loop.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&conf.RootDir, "root-dir",
		getenv("CIRCUIT_ROOT_DIR", "./run"),
		"directory for snapshots, the registry, and summaries")
	flags.StringVar(&conf.ReplayServerAddr, "replay-addr",
		getenv("CIRCUIT_REPLAY_ADDR", defaultReplayAddr),
		"replay service base URL")
	flags.StringVar(&conf.VariableServerAddr, "variable-addr",
		getenv("CIRCUIT_VARIABLE_ADDR", defaultVariableAddr),
		"variable service base URL")
	flags.IntVar(&conf.SequenceLength, "sequence-length",
		getenvInt("CIRCUIT_SEQUENCE_LENGTH", 100),
		"fixed steps per trajectory")
	flags.IntVar(&conf.PerReplicaBatchSize, "batch-size",
		getenvInt("CIRCUIT_BATCH_SIZE", 32),
		"per-replica minibatch size, 0 for full-sequence mode")
	flags.IntVar(&conf.NumReplicas, "replicas",
		getenvInt("CIRCUIT_REPLICAS", 1), "replicas training in sync")
	flags.IntVar(&conf.NumEpochs, "epochs",
		getenvInt("CIRCUIT_EPOCHS", 4), "training epochs per iteration")
	flags.IntVar(&conf.NumIterations, "iterations",
		getenvInt("CIRCUIT_ITERATIONS", 100), "total training iterations")
	flags.IntVar(&conf.EpisodesPerIteration, "episodes",
		getenvInt("CIRCUIT_EPISODES", 64), "episodes consumed per iteration")
	flags.BoolVar(&conf.AllowVariableLengthEpisodes, "variable-length",
		false, "accept trajectories of any length")
	flags.IntVar(&conf.ShuffleWindowEpisodes, "shuffle-window",
		getenvInt("CIRCUIT_SHUFFLE_WINDOW", 3),
		"shuffle window in episodes, 1 to 3")
	flags.Int64Var(&conf.InitTrainStep, "init-train-step",
		getenvInt64("CIRCUIT_INIT_TRAIN_STEP", 0),
		"restored train step for a resumed run")
	flags.Int64Var(&conf.SummaryInterval, "summary-interval",
		getenvInt64("CIRCUIT_SUMMARY_INTERVAL", 200),
		"steps between throughput summaries")
	flags.Uint64Var(&seed, "seed", 13, "random seed")
	flags.Float64Var(&learningRate, "learning-rate", 0.001,
		"policy learning rate")
	flags.Float64Var(&valueLearningRate, "value-learning-rate", 0.005,
		"value baseline learning rate")
	flags.Float64Var(&gamma, "gamma", 0.99, "reward discount")
	flags.Float64Var(&lambda, "lambda", 0.95, "advantage estimation decay")
	return cmd
}

func actorCmd() *cobra.Command {
	var conf actor.Config
	var discount float64
	var stepLimit int

	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Collect experience with the latest published policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cartpole.New(discount, stepLimit, conf.Seed)
			if err != nil {
				return err
			}
			a, err := actor.New(conf, env)
			if err != nil {
				return err
			}
			log.Printf("actor %v starting", a.ID())

			ctx, cancel := signalContext()
			defer cancel()
			return a.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&conf.ReplayServerAddr, "replay-addr",
		getenv("CIRCUIT_REPLAY_ADDR", defaultReplayAddr),
		"replay service base URL")
	flags.StringVar(&conf.VariableServerAddr, "variable-addr",
		getenv("CIRCUIT_VARIABLE_ADDR", defaultVariableAddr),
		"variable service base URL")
	flags.IntVar(&conf.SequenceLength, "sequence-length",
		getenvInt("CIRCUIT_SEQUENCE_LENGTH", 100),
		"fixed steps per trajectory")
	flags.IntVar(&conf.TrajectoriesPerRefresh, "refresh-every",
		getenvInt("CIRCUIT_REFRESH_EVERY", 4),
		"trajectories collected between snapshot pulls")
	flags.Uint64Var(&conf.Seed, "seed", 13, "random seed")
	flags.Float64Var(&discount, "gamma", 0.99, "reward discount")
	flags.IntVar(&stepLimit, "step-limit", 500, "steps before episode cutoff")
	return cmd
}

func replayServerCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "replay-server",
		Short: "Serve the replay buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Printf("replay service listening on :%v", port)
			return http.ListenAndServe(":"+port,
				replay.NewHandler().Router())
		},
	}
	cmd.Flags().StringVar(&port, "port",
		getenv("CIRCUIT_REPLAY_PORT", "9001"), "listen port")
	return cmd
}

func variableServerCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "variable-server",
		Short: "Serve the variable distribution service",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Printf("variable service listening on :%v", port)
			return http.ListenAndServe(":"+port,
				variable.NewHandler().Router())
		},
	}
	cmd.Flags().StringVar(&port, "port",
		getenv("CIRCUIT_VARIABLE_PORT", "9002"), "listen port")
	return cmd
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
