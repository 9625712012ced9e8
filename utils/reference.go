package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// ReferenceGenerator mints human-readable idempotency references for
// ledger transactions. Every reference is unique per process lifetime;
// uniqueness across processes is enforced by the transactions table.
type ReferenceGenerator struct {
	h   *hashids.HashID
	seq int64
}

func NewReferenceGenerator(salt string) (*ReferenceGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 12
	hd.Alphabet = referenceAlphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("could not initialise reference generator: %w", err)
	}

	return &ReferenceGenerator{h: h}, nil
}

// NewReference returns a reference of the form "SB-XXXXXXXXXXXX".
func (g *ReferenceGenerator) NewReference() (string, error) {
	n := atomic.AddInt64(&g.seq, 1)
	code, err := g.h.EncodeInt64([]int64{time.Now().UnixNano(), n})
	if err != nil {
		return "", fmt.Errorf("could not encode reference: %w", err)
	}
	return "SB-" + code, nil
}
