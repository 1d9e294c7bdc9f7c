package solver

// Family identifies a stub engine lineage. Real deployments would map these
// to actual CDCL/local-search binaries; here they only set the stub's
// SolverTypeID/SolverType, and every family runs the same stub search.
type Family int

const (
	// FamilyKissat is the "k" portfolio letter ("kissat-stub").
	FamilyKissat Family = iota
	// FamilyMaple is the "m" portfolio letter ("maple-stub").
	FamilyMaple
	// FamilyLingeling is the "l" portfolio letter ("lingeling-stub").
	FamilyLingeling
	// FamilyDefault is the "d" portfolio letter ("default-stub").
	FamilyDefault
)

func (f Family) letter() string {
	switch f {
	case FamilyKissat:
		return "k"
	case FamilyMaple:
		return "m"
	case FamilyLingeling:
		return "l"
	default:
		return "d"
	}
}

func (f Family) name() string {
	switch f {
	case FamilyKissat:
		return "kissat-stub"
	case FamilyMaple:
		return "maple-stub"
	case FamilyLingeling:
		return "lingeling-stub"
	default:
		return "default-stub"
	}
}

// options mirrors the teacher's Options struct: a plain value configured by
// a fluent Builder, consumed only at construction time.
type options struct {
	family Family
	rank   int
	id     uint32
}

// Factory builds diversified engine instances with fluent configuration, the
// same "set constraints, then Build" shape the teacher used to pick a queue
// topology — generalized here to picking an engine family plus a
// (rank, id)-derived SolverID. No search parameter is derived from
// (rank, id).
//
// Example:
//
//	eng := solver.NewFactory().Family(solver.FamilyKissat).Rank(2).ID(5).Build()
type Factory struct {
	opts options
}

// NewFactory creates an engine builder with default family FamilyDefault.
func NewFactory() *Factory {
	return &Factory{opts: options{family: FamilyDefault}}
}

// Family selects the engine lineage to diversify from.
func (b *Factory) Family(f Family) *Factory {
	b.opts.family = f
	return b
}

// FamilyFromLetter maps spec.md §6's portfolio-string letters ('k', 'm',
// 'l', 'd') to a Family. Unknown letters fall back to FamilyDefault.
func (b *Factory) FamilyFromLetter(letter byte) *Factory {
	switch letter {
	case 'k':
		b.opts.family = FamilyKissat
	case 'm':
		b.opts.family = FamilyMaple
	case 'l':
		b.opts.family = FamilyLingeling
	default:
		b.opts.family = FamilyDefault
	}
	return b
}

// Rank sets this engine's owning process rank, folded into SolverID so
// engine ids differ across ranks. It does not change the stub's search.
func (b *Factory) Rank(rank int) *Factory {
	b.opts.rank = rank
	return b
}

// ID sets this engine's slot id within its process's portfolio.
func (b *Factory) ID(id uint32) *Factory {
	b.opts.id = id
	return b
}

// Build constructs the configured stub engine. The (rank, id) pair
// determines SolverID() so engines across a distributed run never collide:
// id = (rank << 16) | slotID.
func (b *Factory) Build() Interface {
	solverID := (uint32(b.opts.rank) << 16) | (b.opts.id & 0xFFFF)
	return newStubEngine(solverID, uint32(b.opts.family), b.opts.family.name())
}

// BuildPortfolio constructs one diversified engine per letter of a portfolio
// string (spec.md §6's `solver` flag, e.g. "kmld"), each with a distinct
// slot id 0..len(portfolio)-1.
func BuildPortfolio(rank int, portfolio string) []Interface {
	engines := make([]Interface, 0, len(portfolio))
	for i := 0; i < len(portfolio); i++ {
		eng := NewFactory().FamilyFromLetter(portfolio[i]).Rank(rank).ID(uint32(i)).Build()
		engines = append(engines, eng)
	}
	return engines
}

// BuildPortfolioN constructs exactly n diversified engines, cycling through
// portfolio's letters — spec.md §6's `cpus` flag picks the count
// independently of how many distinct engine families `solver` names.
func BuildPortfolioN(rank int, portfolio string, n int) []Interface {
	if len(portfolio) == 0 {
		portfolio = "d"
	}
	engines := make([]Interface, 0, n)
	for i := 0; i < n; i++ {
		letter := portfolio[i%len(portfolio)]
		eng := NewFactory().FamilyFromLetter(letter).Rank(rank).ID(uint32(i)).Build()
		engines = append(engines, eng)
	}
	return engines
}
