package working

import (
	"encoding/binary"
	"fmt"

	"code.hybscloud.com/distsat/internal/clause"
	"code.hybscloud.com/distsat/internal/wire"
)

// encodeFormula packs a preprocessed CNF for PortfolioPRS's root-to-everyone
// broadcast, reusing the clause wire codec rather than inventing a second
// one: every clause is wrapped as an Exchange with a placeholder LBD/from
// (formula literals carry no sharing provenance), prefixed with a varint
// variable count.
func encodeFormula(clauses [][]int32, varCount int) []byte {
	exchanges := make([]*clause.Exchange, len(clauses))
	for i, lits := range clauses {
		exchanges[i] = clause.New(lits, 1, 0)
	}
	body := wire.Encode(wire.Payload{Clauses: exchanges})

	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(varCount))
	out := make([]byte, 0, n+len(body))
	out = append(out, scratch[:n]...)
	out = append(out, body...)
	return out
}

// decodeFormula reverses encodeFormula.
func decodeFormula(data []byte) ([][]int32, int, error) {
	varCount, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, 0, fmt.Errorf("working: decode formula: malformed variable-count header")
	}
	payload, err := wire.Decode(data[n:], 0, false)
	if err != nil {
		return nil, 0, fmt.Errorf("working: decode formula: %w", err)
	}
	clauses := make([][]int32, len(payload.Clauses))
	for i, c := range payload.Clauses {
		clauses[i] = c.Literals()
	}
	return clauses, int(varCount), nil
}
