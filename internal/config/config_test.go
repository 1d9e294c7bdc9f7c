package config_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/distsat/internal/config"
)

func valid() config.Parameters {
	p := config.Default()
	p.Filename = "formula.cnf"
	return p
}

func TestDefaultParametersValidate(t *testing.T) {
	if err := valid().Validate(); err != nil {
		t.Fatalf("expected defaults + filename to validate, got %v", err)
	}
}

func TestValidateRejectsNonPositiveCpus(t *testing.T) {
	p := valid()
	p.Cpus = 0
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsUnknownPortfolioLetter(t *testing.T) {
	p := valid()
	p.Solver = "kx"
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsUnknownGlobalStrategy(t *testing.T) {
	p := valid()
	p.GlobalStrategy = "gossip"
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsDistributedWithoutGlobalStrategy(t *testing.T) {
	p := valid()
	p.EnableDistributed = true
	p.GlobalStrategy = ""
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsMissingFilename(t *testing.T) {
	p := config.Default()
	assertCode(t, p.Validate(), config.ExitIOError)
}

func TestValidateRejectsUnknownWorkingStrategy(t *testing.T) {
	p := valid()
	p.WorkingStrategy = "bogus"
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsDistributedWithoutPeers(t *testing.T) {
	p := valid()
	p.EnableDistributed = true
	p.GlobalStrategy = "allgather"
	p.Peers = nil
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func TestValidateRejectsRankOutOfRangeForPeers(t *testing.T) {
	p := valid()
	p.EnableDistributed = true
	p.GlobalStrategy = "allgather"
	p.Peers = []string{"localhost:9001"}
	p.Rank = 3
	assertCode(t, p.Validate(), config.ExitInvalidStrategy)
}

func assertCode(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.ConfigError, got %T", err)
	}
	if cfgErr.Code != want {
		t.Fatalf("expected exit code %d, got %d", want, cfgErr.Code)
	}
}
