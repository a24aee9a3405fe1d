// Package domain holds the identifier types shared by every layer: holder
// addresses, partition IDs, and reporting periods.
package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address identifies a holder. Addresses are opaque, case-insensitive
// strings normalized to lower case; the ledger never interprets them beyond
// equality.
type Address string

// NewAddress normalizes raw input into an Address.
func NewAddress(raw string) Address {
	return Address(strings.ToLower(strings.TrimSpace(raw)))
}

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// PartitionID is the 32-byte Keccak-256 digest of a partition label. Deriving
// the ID from the label keeps the two in lockstep without a lookup table.
type PartitionID [32]byte

// NewPartitionID derives the ID for a partition label.
func NewPartitionID(label string) PartitionID {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(label))
	var id PartitionID
	copy(id[:], h.Sum(nil))
	return id
}

// ParsePartitionID decodes a 64-hex-digit ID, with or without a 0x prefix.
func ParsePartitionID(s string) (PartitionID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PartitionID{}, fmt.Errorf("invalid partition id: %w", err)
	}
	if len(raw) != 32 {
		return PartitionID{}, fmt.Errorf("invalid partition id: want 32 bytes, got %d", len(raw))
	}
	var id PartitionID
	copy(id[:], raw)
	return id, nil
}

func (p PartitionID) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

// Period identifies a reporting quarter, encoded as year*10+quarter
// (20261 is Q1 2026). Zero is the sentinel for "no period".
type Period uint32

// NewPeriod builds a period from a year and quarter. Quarter must be 1..4;
// out-of-range input yields the zero period.
func NewPeriod(year int, quarter int) Period {
	if year <= 0 || quarter < 1 || quarter > 4 {
		return 0
	}
	return Period(year*10 + quarter)
}

// ParsePeriod decodes the numeric wire form.
func ParsePeriod(s string) (Period, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid period: %w", err)
	}
	p := Period(n)
	if p != 0 && (p.Quarter() < 1 || p.Quarter() > 4) {
		return 0, fmt.Errorf("invalid period %d: quarter out of range", n)
	}
	return p, nil
}

func (p Period) Year() int { return int(p) / 10 }

func (p Period) Quarter() int { return int(p) % 10 }

func (p Period) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// FormatQuarter renders the human form, e.g. "Q1 2026".
func (p Period) FormatQuarter() string {
	if p == 0 {
		return "none"
	}
	return fmt.Sprintf("Q%d %d", p.Quarter(), p.Year())
}
