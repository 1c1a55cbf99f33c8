// Package util holds small helpers shared by the journal and the CLI.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// SortedUnique returns a sorted copy of ids without duplicates.
func SortedUnique(ids []string) []string {
	s := slices.Clone(ids)
	slices.Sort(s)
	return slices.Compact(s)
}

// BatchKey returns "<prefix>:<16 hex>" where the hex is a SHA-256 prefix of
// the sorted, de-duplicated ids. Order and repetition of ids do not matter.
func BatchKey(prefix string, ids []string) string {
	sum := sha256.Sum256([]byte(strings.Join(SortedUnique(ids), "\x00")))
	return prefix + ":" + hex.EncodeToString(sum[:8])
}
