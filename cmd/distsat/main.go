// Command distsat runs the portfolio/distributed SAT solving framework
// described in spec.md: load a DIMACS CNF, wire up a WorkingStrategy over a
// local or distributed transport, and exit with the code spec.md §6's table
// assigns to the verdict reached.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"code.hybscloud.com/distsat/internal/config"
	"code.hybscloud.com/distsat/internal/dimacs"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/solver"
	"code.hybscloud.com/distsat/internal/transport"
	"code.hybscloud.com/distsat/internal/working"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run builds the root command and executes it, returning the process exit
// code. Split from main so it never calls os.Exit itself — keeps it callable
// from main_test.go.
func run(args []string) int {
	v := viper.New()
	v.SetEnvPrefix("distsat")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	exitCode := config.ExitOK
	cmd := newRootCmd(v, &exitCode)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// solveOnce always sets exitCode to its specific failure code before
		// returning its error; only a pre-solve failure (flag parsing,
		// Validate()) leaves it at the zero value, so fall back to
		// unwrapping a *ConfigError from err itself in that case.
		if exitCode != config.ExitOK {
			return exitCode
		}
		var cfgErr *config.ConfigError
		if asConfigError(err, &cfgErr) {
			return cfgErr.Code
		}
		return config.ExitIOError
	}
	return exitCode
}

func asConfigError(err error, target **config.ConfigError) bool {
	for err != nil {
		if ce, ok := err.(*config.ConfigError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func newRootCmd(v *viper.Viper, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distsat",
		Short: "distsat solves a DIMACS CNF with a portfolio of diversified engines",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := bindParameters(v)
			if err := params.Validate(); err != nil {
				return err
			}
			code, err := solveOnce(context.Background(), params)
			*exitCode = code
			return err
		},
	}
	bindFlags(cmd, v)
	return cmd
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	d := config.Default()
	flags := cmd.Flags()

	flags.String("solver", d.Solver, "portfolio string, e.g. \"kkml\"")
	flags.Int("cpus", d.Cpus, "number of solver handles")
	flags.Int("timeout", d.Timeout, "seconds before giving up (0 = no timeout)")
	flags.Bool("enable-distributed", d.EnableDistributed, "enable cross-process clause sharing")
	flags.Bool("simple", d.Simple, "use the Simple local strategy instead of HordeSat")
	flags.Int("max-clause-size", d.MaxClauseSize, "largest clause size ever shared")
	flags.Int("shared-literals-per-producer", d.SharedLiteralsPerProducer, "HordeSat per-producer literal export budget")
	flags.Float64("horde-initial-lbd-limit", d.HordeInitialLbdLimit, "not read by any strategy; HordeSat starts every producer at an LBD limit of 2")
	flags.Int("horde-init-round", d.HordeInitRound, "HordeSat's warm-up ticks before LBD adaptation starts")
	flags.Int("simple-share-limit", d.SimpleShareLimit, "Simple strategy's fixed literal budget")
	flags.String("global-strategy", d.GlobalStrategy, "\"\" | \"allgather\" | \"ring\" | \"mallob\"")
	flags.Int("global-shared-literals", d.GlobalSharedLiterals, "AllGather's per-round literal budget")
	flags.Int("mallob-max-buffer-size", d.MallobMaxBufferSize, "Mallob's aggregate buffer cap")
	flags.Uint32("mallob-lbd-limit", d.MallobLBDLimit, "Mallob's ingress LBD ceiling")
	flags.Int("mallob-size-limit", d.MallobSizeLimit, "Mallob's ingress clause-size ceiling")
	flags.Float64("mallob-sharings-per-second", d.MallobSharingsPerSecond, "Mallob's tick rate (used only with --one-sharer=false)")
	flags.Float64("mallob-max-compensation", d.MallobMaxCompensation, "Mallob's compensation multiplier ceiling")
	flags.Int("mallob-reshare-period", d.MallobResharePeriod, "Mallob's ticks-per-adaptation period")
	flags.Bool("one-sharer", d.OneSharer, "one round-robining Sharer goroutine instead of one per strategy")
	flags.String("working-strategy", d.WorkingStrategy, "\"simple\" | \"prs\"")
	flags.Int("rank", d.Rank, "this process's rank (distributed mode)")
	flags.StringSlice("peers", nil, "every rank's host:port address, ordered by rank (distributed mode)")
	flags.String("filename", "", "DIMACS CNF file to solve")
	flags.Bool("no-model", d.NoModel, "omit the satisfying model from output")
	flags.Int("verbosity", d.Verbosity, "0=warn, 1=info, 2+=debug")

	_ = v.BindPFlags(flags)
}

func bindParameters(v *viper.Viper) config.Parameters {
	return config.Parameters{
		Solver:                    v.GetString("solver"),
		Cpus:                      v.GetInt("cpus"),
		Timeout:                   v.GetInt("timeout"),
		EnableDistributed:         v.GetBool("enable-distributed"),
		Simple:                    v.GetBool("simple"),
		MaxClauseSize:             v.GetInt("max-clause-size"),
		SharedLiteralsPerProducer: v.GetInt("shared-literals-per-producer"),
		HordeInitialLbdLimit:      v.GetFloat64("horde-initial-lbd-limit"),
		HordeInitRound:            v.GetInt("horde-init-round"),
		SimpleShareLimit:          v.GetInt("simple-share-limit"),
		GlobalStrategy:            v.GetString("global-strategy"),
		GlobalSharedLiterals:      v.GetInt("global-shared-literals"),
		MallobMaxBufferSize:       v.GetInt("mallob-max-buffer-size"),
		MallobLBDLimit:            uint32(v.GetUint32("mallob-lbd-limit")),
		MallobSizeLimit:           v.GetInt("mallob-size-limit"),
		MallobSharingsPerSecond:   v.GetFloat64("mallob-sharings-per-second"),
		MallobMaxCompensation:     v.GetFloat64("mallob-max-compensation"),
		MallobResharePeriod:       v.GetInt("mallob-reshare-period"),
		OneSharer:                 v.GetBool("one-sharer"),
		WorkingStrategy:           v.GetString("working-strategy"),
		Rank:                      v.GetInt("rank"),
		Peers:                     v.GetStringSlice("peers"),
		Filename:                  v.GetString("filename"),
		NoModel:                   v.GetBool("no-model"),
		Verbosity:                 v.GetInt("verbosity"),
	}
}

// solveOnce wires every layer together for a single solving run and returns
// spec.md §6's exit code for the reached verdict.
func solveOnce(ctx context.Context, params config.Parameters) (int, error) {
	log, err := obs.NewLogger(params.Verbosity)
	if err != nil {
		return config.ExitIOError, fmt.Errorf("distsat: build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	metrics := obs.NewMetrics()

	f, err := os.Open(params.Filename)
	if err != nil {
		return config.ExitIOError, fmt.Errorf("distsat: open %s: %w", params.Filename, err)
	}
	defer f.Close()
	clauses, varCount, err := dimacs.Parse(f)
	if err != nil {
		return config.ExitIOError, fmt.Errorf("distsat: parse %s: %w", params.Filename, err)
	}

	layer, err := buildTransport(params, log)
	if err != nil {
		return config.ExitInsufficientThreading, err
	}
	if layer != nil {
		defer layer.Close()
	}

	bus := working.NewBus()
	strategy, err := buildStrategy(params, layer, clauses, varCount, bus, log, metrics)
	if err != nil {
		return config.ExitInvalidStrategy, err
	}

	runCtx := ctx
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(params.Timeout)*time.Second)
		defer cancel()
	}
	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := strategy.Solve(runCtx, nil); err != nil {
		return config.ExitIOError, fmt.Errorf("distsat: solve: %w", err)
	}

	result, model, _ := bus.Result()
	printVerdict(result, model, params.NoModel)
	switch result.String() {
	case "SAT":
		return config.ExitSAT, nil
	case "UNSAT":
		return config.ExitUNSAT, nil
	default:
		return config.ExitOK, nil
	}
}

func buildTransport(params config.Parameters, log *obs.Logger) (transport.Layer, error) {
	if !params.EnableDistributed {
		return nil, nil
	}
	layer, err := transport.NewGrpcLayer(params.Rank, params.Peers, log)
	if err != nil {
		return nil, fmt.Errorf("distsat: build transport: %w", err)
	}
	return layer, nil
}

func buildStrategy(params config.Parameters, layer transport.Layer, clauses [][]int32, varCount int, bus *working.Bus, log *obs.Logger, metrics *obs.Metrics) (working.Working, error) {
	rank := params.Rank
	switch params.WorkingStrategy {
	case "prs":
		if layer == nil {
			return nil, fmt.Errorf("distsat: working strategy %q requires enableDistributed", params.WorkingStrategy)
		}
		return working.NewPortfolioPRS(params, rank, layer, clauses, varCount, bus, log, metrics), nil
	default:
		return working.NewPortfolioSimple(params, rank, layer, clauses, varCount, bus, log, metrics), nil
	}
}

func printVerdict(result solver.Result, model []int32, noModel bool) {
	fmt.Println("s", result.String())
	if noModel || result.String() != "SAT" || len(model) == 0 {
		return
	}
	parts := make([]string, 0, len(model)+1)
	for _, lit := range model {
		parts = append(parts, fmt.Sprintf("%d", lit))
	}
	parts = append(parts, "0")
	fmt.Println("v", strings.Join(parts, " "))
}
