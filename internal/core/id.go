package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const runIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
const runIDSuffixLength = 5

// NewRunID generates a time-derived run identifier with a random
// suffix, e.g. "debate_20250314_142233_k3x9p". The timestamp keeps
// run directories sortable; the suffix avoids collisions within one
// second.
func NewRunID() string {
	return NewRunIDAt(time.Now())
}

// NewRunIDAt generates a run identifier for a fixed timestamp.
func NewRunIDAt(t time.Time) string {
	b := make([]byte, runIDSuffixLength)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(runIDCharset))))
		if err != nil {
			// crypto/rand failing is practically impossible; fall back
			// to a nanosecond-derived suffix rather than aborting.
			return fmt.Sprintf("debate_%s_%05d", t.Format("20060102_150405"), t.Nanosecond()%100000)
		}
		b[i] = runIDCharset[num.Int64()]
	}
	return fmt.Sprintf("debate_%s_%s", t.Format("20060102_150405"), string(b))
}
