// Package config holds the CLI-bound Parameters struct and its validation,
// per spec.md §6.
package config

import "fmt"

// Exit codes. cmd/distsat maps every ConfigError to one of these, and never
// passes a literal to os.Exit.
const (
	ExitOK                    = 0
	ExitSAT                   = 10
	ExitUNSAT                 = 20
	ExitInsufficientThreading = 3
	ExitInvalidStrategy       = 4
	ExitIOError               = 5
)

// ConfigError is a fatal configuration problem discovered at startup; its
// Code is one of the Exit* constants above.
type ConfigError struct {
	Code int
	Msg  string
}

func (e *ConfigError) Error() string { return e.Msg }

func newConfigError(code int, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Parameters is the full CLI surface from spec.md §6, bound by cmd/distsat
// through cobra+viper (flags or DISTSAT_* env vars).
type Parameters struct {
	Solver            string // portfolio string, e.g. "kkml"
	Cpus              int
	Timeout           int // seconds; 0 means no timeout
	EnableDistributed bool

	Simple        bool // selects local.Simple over local.HordeSat
	MaxClauseSize int

	SharedLiteralsPerProducer int
	HordeInitialLbdLimit      float64
	HordeInitRound            int

	SimpleShareLimit int

	GlobalStrategy       string // "allgather" | "ring" | "mallob" | ""
	GlobalSharedLiterals int

	MallobMaxBufferSize     int
	MallobLBDLimit          uint32
	MallobSizeLimit         int
	MallobSharingsPerSecond float64
	MallobMaxCompensation   float64
	MallobResharePeriod     int

	OneSharer bool // true: one round-robining Sharer; false: one Sharer per strategy

	// WorkingStrategy selects the L5 strategy: "simple" (PortfolioSimple) or
	// "prs" (PortfolioPRS), per spec.md §12.
	WorkingStrategy string

	// Rank and Peers configure the distributed gRPC transport: Peers is
	// every rank's "host:port" address ordered by rank, Rank is this
	// process's own index into it. Both are ignored when EnableDistributed
	// is false.
	Rank  int
	Peers []string

	Filename  string
	NoModel   bool
	Verbosity int
}

// Default returns Parameters populated with the spec's sane defaults. Every
// field viper doesn't override from flags/env keeps these.
func Default() Parameters {
	return Parameters{
		Solver:                    "kk",
		Cpus:                      1,
		Timeout:                   0,
		EnableDistributed:         false,
		Simple:                    false,
		MaxClauseSize:             30,
		SharedLiteralsPerProducer: 1500,
		HordeInitialLbdLimit:      2,
		HordeInitRound:            1,
		SimpleShareLimit:          1500,
		GlobalStrategy:            "",
		GlobalSharedLiterals:      1500,
		MallobMaxBufferSize:       1500,
		MallobLBDLimit:            8,
		MallobSizeLimit:           30,
		MallobSharingsPerSecond:   1,
		MallobMaxCompensation:     4,
		MallobResharePeriod:       10,
		OneSharer:                 true,
		WorkingStrategy:           "simple",
		Rank:                      0,
		NoModel:                   false,
		Verbosity:                 0,
	}
}

// Validate checks the invariants spec.md §7 calls out as fatal
// configuration errors. A non-nil error is always a *ConfigError.
func (p Parameters) Validate() error {
	if p.Cpus <= 0 {
		return newConfigError(ExitInvalidStrategy, "cpus must be > 0, got %d", p.Cpus)
	}
	if len(p.Solver) == 0 {
		return newConfigError(ExitInvalidStrategy, "solver portfolio string must not be empty")
	}
	for _, letter := range p.Solver {
		switch letter {
		case 'k', 'm', 'l', 'd':
		default:
			return newConfigError(ExitInvalidStrategy, "unsupported portfolio letter %q", letter)
		}
	}
	if p.MaxClauseSize <= 0 {
		return newConfigError(ExitInvalidStrategy, "maxClauseSize must be > 0, got %d", p.MaxClauseSize)
	}
	switch p.GlobalStrategy {
	case "", "allgather", "ring", "mallob":
	default:
		return newConfigError(ExitInvalidStrategy, "unknown global strategy %q", p.GlobalStrategy)
	}
	if p.EnableDistributed && p.GlobalStrategy == "" {
		return newConfigError(ExitInvalidStrategy, "enableDistributed requires a globalStrategy")
	}
	switch p.WorkingStrategy {
	case "simple", "prs":
	default:
		return newConfigError(ExitInvalidStrategy, "unknown working strategy %q", p.WorkingStrategy)
	}
	if p.EnableDistributed {
		if len(p.Peers) == 0 {
			return newConfigError(ExitInvalidStrategy, "enableDistributed requires at least one peer address")
		}
		if p.Rank < 0 || p.Rank >= len(p.Peers) {
			return newConfigError(ExitInvalidStrategy, "rank %d out of range for %d peers", p.Rank, len(p.Peers))
		}
	}
	if p.Filename == "" {
		return newConfigError(ExitIOError, "filename is required")
	}
	return nil
}
