package core

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for logs and reports
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeMatrixHash fingerprints an encoded feature matrix together with its
// column names and labels. Two runs over the same encoded data share a hash.
func ComputeMatrixHash(names []string, rows [][]float64, labels []int) Hash {
	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	buf := make([]byte, 0, 8)
	for _, row := range rows {
		for _, v := range row {
			buf = strconv.AppendUint(buf[:0], math.Float64bits(v), 16)
			h.Write(buf)
			h.Write([]byte{','})
		}
		h.Write([]byte{'\n'})
	}
	for _, label := range labels {
		h.Write([]byte(strconv.Itoa(label)))
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}
