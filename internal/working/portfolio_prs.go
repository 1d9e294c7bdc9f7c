package working

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/distsat/internal/config"
	"code.hybscloud.com/distsat/internal/obs"
	"code.hybscloud.com/distsat/internal/sharer"
	"code.hybscloud.com/distsat/internal/solver"
	"code.hybscloud.com/distsat/internal/solver/preprocess"
	"code.hybscloud.com/distsat/internal/transport"
)

// prsState is PortfolioPRS's explicit run state, replacing
// original_source/src/working/PortfolioPRS.cpp's goto-based early exit
// (spec.md §9's redesign note) with a state machine a reader can follow
// top to bottom.
type prsState int32

const (
	statePreprocessing prsState = iota
	stateBroadcasting
	stateRunning
	stateDone
)

func (s prsState) String() string {
	switch s {
	case statePreprocessing:
		return "preprocessing"
	case stateBroadcasting:
		return "broadcasting"
	case stateRunning:
		return "running"
	default:
		return "done"
	}
}

// PortfolioPRS is the multi-group portfolio strategy from spec.md §9/§12:
// rank 0 runs a PRS-style simplification pass, the simplified formula (or
// an immediate verdict) is broadcast to every rank, and surviving ranks
// split into node groups {SAT, UNSAT, MAPLE, LGL, DEFAULT} each diversified
// toward a different search flavor. Each rank's within-group ring
// neighbours are computed by assignGroup but not used: clause sharing runs
// through the one global strategy the parameters name, across all ranks.
type PortfolioPRS struct {
	params config.Parameters
	rank   int
	layer  transport.Layer // required: PRS needs the broadcast collective even with a single rank

	rawClauses  [][]int32
	rawVarCount int

	bus     *Bus
	log     *obs.Logger
	metrics *obs.Metrics

	state   atomix.Int32
	sharers []runnableSharer
}

// NewPortfolioPRS constructs a PortfolioPRS over an unprocessed CNF. layer
// must be non-nil; PRS has no single-process mode since its coordination
// goes through root's broadcast even when running under one rank.
func NewPortfolioPRS(params config.Parameters, rank int, layer transport.Layer, clauses [][]int32, varCount int, bus *Bus, log *obs.Logger, metrics *obs.Metrics) *PortfolioPRS {
	return &PortfolioPRS{
		params: params, rank: rank, layer: layer,
		rawClauses: clauses, rawVarCount: varCount,
		bus: bus, log: log, metrics: metrics,
	}
}

// State reports the current stage, for status logging/metrics.
func (p *PortfolioPRS) State() prsState { return prsState(p.state.LoadAcquire()) }

func (p *PortfolioPRS) setState(s prsState) { p.state.StoreRelease(int32(s)) }

func (p *PortfolioPRS) Solve(ctx context.Context, cube []int32) error {
	p.setState(statePreprocessing)

	var simplified preprocess.Result
	if p.rank == 0 {
		simplified = preprocess.Simplify(p.rawClauses, p.rawVarCount)
	}

	p.setState(stateBroadcasting)
	clauses, varCount, decided, err := p.broadcastFormula(ctx, simplified)
	if err != nil {
		return err
	}
	if decided {
		p.setState(stateDone)
		return nil
	}

	p.setState(stateRunning)
	if err := p.runGroup(ctx, cube, clauses, varCount, simplified.Eliminations); err != nil {
		return err
	}

	p.setState(stateDone)
	return nil
}

// broadcastFormula is rank 0's "Preprocessing -> Broadcasting" handoff: an
// immediate verdict short-circuits every rank straight to Done (decided =
// true, no engines ever built); otherwise every rank (including root)
// receives the same simplified CNF.
func (p *PortfolioPRS) broadcastFormula(ctx context.Context, simplified preprocess.Result) (clauses [][]int32, varCount int, decided bool, err error) {
	var outbound []byte
	if p.rank == 0 {
		switch {
		case simplified.Unsat:
			outbound = []byte{byte(solver.UNSAT)}
		case len(simplified.Clauses) == 0:
			outbound = []byte{byte(solver.SAT)}
		default:
			outbound = append([]byte{byte(solver.Unknown)}, encodeFormula(simplified.Clauses, simplified.VarCount)...)
		}
	}

	received, err := p.layer.Broadcast(ctx, 0, outbound)
	if err != nil {
		return nil, 0, false, fmt.Errorf("working: prs broadcast: %w", err)
	}
	if len(received) == 0 {
		return nil, 0, false, fmt.Errorf("working: prs broadcast: empty payload")
	}

	if code := solver.Result(received[0]); code != solver.Unknown {
		var model []int32
		if code == solver.SAT && p.rank == 0 {
			// Eliminations satisfied every clause; variables they left free
			// are set true.
			model = make([]int32, simplified.VarCount)
			for i := range model {
				model[i] = int32(i + 1)
			}
			model = preprocess.RestoreModel(model, simplified.Eliminations)
		}
		p.bus.Join(0, code, model)
		return nil, 0, true, nil
	}

	clauses, varCount, err = decodeFormula(received[1:])
	if err != nil {
		return nil, 0, false, fmt.Errorf("working: prs decode formula: %w", err)
	}
	return clauses, varCount, false, nil
}

// runGroup builds this rank's diversified engines, runs the usual
// local/global sharing rig over them, and solves concurrently — the same
// shape as PortfolioSimple.Solve from this point on, over just this rank's
// node-group engines instead of its whole portfolio.
func (p *PortfolioPRS) runGroup(ctx context.Context, cube []int32, clauses [][]int32, varCount int, eliminations []preprocess.Elimination) error {
	assignment := assignGroup(p.layer.WorldSize(), p.rank)
	if p.log != nil {
		p.log.Sugar().Infow("prs: node group assigned", "rank", p.rank, "group", assignment.Group.String(), "rankInGroup", assignment.RankInGroup, "groupSize", assignment.GroupSize)
	}

	engines := p.buildGroupEngines(assignment.Group)
	for _, eng := range engines {
		if err := eng.LoadFormula(clauses, varCount); err != nil {
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
			if result == solver.Unknown {
				return
			}
			model := eng.Model()
			if p.rank == 0 && result == solver.SAT {
				// Only root ran the elimination-producing preprocessing
				// pass, so only root can restore a model against it.
				model = preprocess.RestoreModel(model, eliminations)
			}
			p.bus.Join(p.rank, result, model)
		}(eng)
	}
	wg.Wait()

	cancelSharers()
	for _, sh := range p.sharers {
		<-sh.Done()
	}
	return nil
}

// buildGroupEngines diversifies engines per node group, per
// original_source/src/working/PortfolioPRS.cpp: SAT/UNSAT groups run
// kissat-flavored engines tuned toward proving one side, MAPLE runs the
// configured portfolio's second letter (defaulting to 'm'), LGL is always
// the 'l' family, and DEFAULT runs the full configured portfolio.
func (p *PortfolioPRS) buildGroupEngines(group Group) []solver.Interface {
	switch group {
	case GroupSAT:
		return p.taggedEngines("k", solver.SatStable)
	case GroupUNSAT:
		return p.taggedEngines("k", solver.UnsatFocused)
	case GroupMAPLE:
		letter := byte('m')
		if len(p.params.Solver) > 1 {
			letter = p.params.Solver[1]
		}
		return solver.BuildPortfolioN(p.rank, string(letter), p.params.Cpus)
	case GroupLGL:
		return solver.BuildPortfolioN(p.rank, "l", p.params.Cpus)
	default:
		return p.taggedEngines(p.params.Solver, solver.MixedSwitch)
	}
}

// taggedEngines builds a diversified portfolio and, for engines that expose
// the optional SetKissatFamily knob (spec.md §12), tags them with this
// group's restart-policy flavor.
func (p *PortfolioPRS) taggedEngines(portfolio string, family solver.KissatFamily) []solver.Interface {
	engines := solver.BuildPortfolioN(p.rank, portfolio, p.params.Cpus)
	for _, e := range engines {
		if setter, ok := e.(interface{ SetKissatFamily(solver.KissatFamily) }); ok {
			setter.SetKissatFamily(family)
		}
	}
	return engines
}
