package working

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/distsat/internal/config"
	"code.hybscloud.com/distsat/internal/database"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharer"
	"code.hybscloud.com/distsat/internal/sharing"
	"code.hybscloud.com/distsat/internal/sharing/global"
	"code.hybscloud.com/distsat/internal/sharing/local"
	"code.hybscloud.com/distsat/internal/solver"
	"code.hybscloud.com/distsat/internal/transport"
)

// Working is the L5 contract every portfolio strategy implements, per
// spec.md §4.9/§5.
type Working interface {
	Solve(ctx context.Context, cube []int32) error
}

// sharingLocal is what PortfolioSimple needs from either local sharing
// strategy: the DoSharing tick, the full sharing.Entity surface (so a
// global strategy can sit behind it), and the Join hook that wires up a
// solver handle.
type sharingLocal interface {
	local.Strategy
	sharing.Entity
	Join(engine local.Engine)
}

// sharingGlobal is what PortfolioSimple needs from a global strategy.
type sharingGlobal interface {
	global.Strategy
	sharing.Entity
}

// runnableSharer is the subset of sharer.Sharer/sharer.RoundRobin
// PortfolioSimple drives.
type runnableSharer interface {
	Run(ctx context.Context)
	Done() <-chan struct{}
}

// PortfolioSimple is the single-group portfolio strategy from spec.md
// §4.9: every engine shares one local database, optionally forwarding to
// one configured global strategy when distributed sharing is enabled.
type PortfolioSimple struct {
	params config.Parameters
	rank   int
	layer  transport.Layer // nil when not running distributed

	clauses  [][]int32
	varCount int

	bus     *Bus
	log     *obs.Logger
	metrics *obs.Metrics

	sharers []runnableSharer
}

// NewPortfolioSimple constructs a PortfolioSimple over an already-loaded
// CNF. layer may be nil when EnableDistributed is false.
func NewPortfolioSimple(params config.Parameters, rank int, layer transport.Layer, clauses [][]int32, varCount int, bus *Bus, log *obs.Logger, metrics *obs.Metrics) *PortfolioSimple {
	return &PortfolioSimple{
		params: params, rank: rank, layer: layer,
		clauses: clauses, varCount: varCount,
		bus: bus, log: log, metrics: metrics,
	}
}

func (p *PortfolioSimple) Solve(ctx context.Context, cube []int32) error {
	engines := solver.BuildPortfolioN(p.rank, p.params.Solver, p.params.Cpus)
	for _, eng := range engines {
		if err := eng.LoadFormula(p.clauses, p.varCount); err != nil {
			return fmt.Errorf("working: load formula: %w", err)
		}
		p.bus.Register(eng)
	}

	localStrategy := newLocalStrategy(p.params, p.metrics, p.log)
	for _, eng := range engines {
		localStrategy.Join(eng)
	}

	strategies := []sharer.Strategy{localStrategy}
	if gs := maybeGlobalStrategy(p.params, p.layer, localStrategy, p.log, p.metrics); gs != nil {
		strategies = append(strategies, gs)
	}

	sharersCtx, cancelSharers := context.WithCancel(ctx)
	p.sharers = launchSharers(sharersCtx, p.params, p.bus, p.log, strategies)

	var wg sync.WaitGroup
	for _, eng := range engines {
		wg.Add(1)
		go func(eng solver.Interface) {
			defer wg.Done()
			result, err := eng.Solve(ctx, cube)
			if err != nil {
				if p.log != nil {
					p.log.Sugar().Warnw("solver returned error", "engine", eng.SolverID(), "error", err)
				}
				return
			}
			if result != solver.Unknown {
				p.bus.Join(p.rank, result, eng.Model())
			}
		}(eng)
	}
	wg.Wait()

	cancelSharers()
	for _, sh := range p.sharers {
		<-sh.Done()
	}
	return nil
}

// newLocalStrategy builds the local sharing strategy every Working
// implementation runs per engine group, per spec.md §4.6.
func newLocalStrategy(params config.Parameters, metrics *obs.Metrics, log *obs.Logger) sharingLocal {
	db := database.NewBufferPerEntity(params.MaxClauseSize)
	if params.Simple {
		return local.NewSimple(db, params.MaxClauseSize, params.SimpleShareLimit, metrics, log)
	}
	return local.NewHordeSat(db, params.MaxClauseSize, params.SharedLiteralsPerProducer, params.HordeInitRound, metrics, log)
}

// maybeGlobalStrategy builds the configured global strategy and wires it as
// a client of localStrategy — "producers export to the local strategy,
// which in turn exports to the global strategy" per
// original_source/src/working/PortfolioPRS.cpp. Returns nil (dropping
// distributed sharing entirely, per spec.md §4.7/§7) when distribution is
// disabled, no layer is available, or the transport can't offer the
// required threading level.
func maybeGlobalStrategy(params config.Parameters, layer transport.Layer, localStrategy sharingLocal, log *obs.Logger, metrics *obs.Metrics) sharingGlobal {
	if !params.EnableDistributed || layer == nil {
		return nil
	}
	gs := newGlobalStrategy(params, layer, localStrategy, log, metrics)
	if gs == nil {
		return nil
	}
	if !gs.InitMPIVariables() {
		return nil
	}
	gs.ConnectProducer(localStrategy)
	return gs
}

func newGlobalStrategy(params config.Parameters, layer transport.Layer, local global.Local, log *obs.Logger, metrics *obs.Metrics) sharingGlobal {
	switch params.GlobalStrategy {
	case "allgather":
		return global.NewAllGather(layer, local, params.MaxClauseSize, params.GlobalSharedLiterals, log, metrics)
	case "ring":
		return global.NewRing(layer, local, log)
	case "mallob":
		return global.NewMallob(layer, local, params.MallobMaxBufferSize, params.MallobLBDLimit, params.MallobSizeLimit, params.MallobResharePeriod, params.MallobMaxCompensation, log, metrics)
	default:
		return nil
	}
}

// localSharingPeriod is the local strategy's and any non-Mallob global
// strategy's tick period; spec.md only pins down an explicit period for
// Mallob (mallobSharingsPerSecond).
const localSharingPeriod = 50 * time.Millisecond

// launchSharers starts a single round-robin goroutine visiting every
// strategy each tick (params.OneSharer true) or one goroutine per strategy
// (false), per spec.md §6's oneSharer flag and
// original_source/src/sharing/SharingStrategyFactory.cpp's oneSharer==true
// → single Sharer(0, allStrategies) convention. The caller owns cancelling
// ctx and then draining every returned runnableSharer's Done() channel.
func launchSharers(ctx context.Context, params config.Parameters, bus *Bus, log *obs.Logger, strategies []sharer.Strategy) []runnableSharer {
	if params.OneSharer {
		sh := sharer.NewRoundRobin(strategies, localSharingPeriod, bus, log)
		go sh.Run(ctx)
		return []runnableSharer{sh}
	}
	sharers := make([]runnableSharer, 0, len(strategies))
	for _, s := range strategies {
		sh := sharer.New(s, periodFor(params, s), bus, log)
		sharers = append(sharers, sh)
		go sh.Run(ctx)
	}
	return sharers
}

func periodFor(params config.Parameters, s sharer.Strategy) time.Duration {
	if _, ok := s.(*global.Mallob); ok && params.MallobSharingsPerSecond > 0 {
		return time.Duration(float64(time.Second) / params.MallobSharingsPerSecond)
	}
	return localSharingPeriod
}
