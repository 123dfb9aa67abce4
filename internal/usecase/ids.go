package usecase

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet = "0123456789abcdef"
	idLength   = 24

	prefixOrder       = "ord_"
	prefixPayment     = "pay_"
	prefixTransaction = "txn_"
	prefixSettlement  = "setl_"
	prefixEvent       = "evt_"
)

// newID returns a prefixed opaque identifier of 24 random hex characters
func newID(prefix string) string {
	return prefix + gonanoid.MustGenerate(idAlphabet, idLength)
}
