// Package wire implements the clause payload codec: varint-encoded clause
// batches exchanged between ranks over internal/transport.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"code.hybscloud.com/distsat/internal/clause"
)

// Payload is a decoded batch of clauses, plus an optional hop count used by
// the Ring global sharing strategy to bound re-publication.
type Payload struct {
	Clauses []*clause.Exchange
	// Hops is the number of ring forwards this payload has already taken.
	// Zero for every non-Ring strategy and for a payload's first hop.
	Hops uint32
	// HasHops distinguishes "hop count of zero" from "no hop field present"
	// — AllGather/Mallob payloads never carry the trailing varint at all.
	HasHops bool
}

// Encode writes p per spec: varint n_clauses, varint total_literals, then
// per clause: varint size, varint lbd, size signed varints for literals.
// If p.HasHops, one trailing varint hop count follows the clause list.
func Encode(p Payload) []byte {
	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte

	totalLiterals := 0
	for _, c := range p.Clauses {
		totalLiterals += c.Size()
	}

	n := binary.PutUvarint(scratch[:], uint64(len(p.Clauses)))
	buf.Write(scratch[:n])
	n = binary.PutUvarint(scratch[:], uint64(totalLiterals))
	buf.Write(scratch[:n])

	for _, c := range p.Clauses {
		n = binary.PutUvarint(scratch[:], uint64(c.Size()))
		buf.Write(scratch[:n])
		n = binary.PutUvarint(scratch[:], uint64(c.LBD()))
		buf.Write(scratch[:n])
		for _, lit := range c.Literals() {
			n = binary.PutVarint(scratch[:], int64(lit))
			buf.Write(scratch[:n])
		}
	}

	if p.HasHops {
		n = binary.PutUvarint(scratch[:], uint64(p.Hops))
		buf.Write(scratch[:n])
	}

	return buf.Bytes()
}

// Decode parses bytes produced by Encode. from is stamped onto every
// decoded clause as its provenance. hasHops must match the encoder's
// HasHops so the trailing hop-count varint, if present, is consumed
// correctly — the two sides agree on this out of band (it's a property of
// the strategy, not of the payload itself).
func Decode(data []byte, from uint32, hasHops bool) (Payload, error) {
	r := bytes.NewReader(data)

	nClauses, err := binary.ReadUvarint(r)
	if err != nil {
		return Payload{}, fmt.Errorf("wire: read n_clauses: %w", err)
	}
	totalLiterals, err := binary.ReadUvarint(r)
	if err != nil {
		return Payload{}, fmt.Errorf("wire: read total_literals: %w", err)
	}

	clauses := make([]*clause.Exchange, 0, nClauses)
	literalsSeen := uint64(0)

	for i := uint64(0); i < nClauses; i++ {
		size, err := binary.ReadUvarint(r)
		if err != nil {
			return Payload{}, fmt.Errorf("wire: read size of clause %d: %w", i, err)
		}
		lbd, err := binary.ReadUvarint(r)
		if err != nil {
			return Payload{}, fmt.Errorf("wire: read lbd of clause %d: %w", i, err)
		}
		literals := make([]int32, size)
		for j := uint64(0); j < size; j++ {
			lit, err := binary.ReadVarint(r)
			if err != nil {
				return Payload{}, fmt.Errorf("wire: read literal %d of clause %d: %w", j, i, err)
			}
			literals[j] = int32(lit)
		}
		literalsSeen += size
		clauses = append(clauses, clause.New(literals, uint32(lbd), from))
	}

	if literalsSeen != totalLiterals {
		return Payload{}, fmt.Errorf("wire: total_literals mismatch: header says %d, payload has %d", totalLiterals, literalsSeen)
	}

	p := Payload{Clauses: clauses, HasHops: hasHops}
	if hasHops {
		hops, err := binary.ReadUvarint(r)
		if err != nil {
			return Payload{}, fmt.Errorf("wire: read hop count: %w", err)
		}
		p.Hops = uint32(hops)
	}
	return p, nil
}
