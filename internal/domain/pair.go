package domain

// CanonicalPair normalizes two user ids into (low, high) order. The ordering
// is plain byte-wise string comparison; all callers must use the same rule so
// that room lookups are direction-independent.
func CanonicalPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// PairKeyOf builds the unique lookup key for an unordered user pair. The key
// is what the chat_rooms uniqueness constraint is declared on, which makes
// concurrent get-or-create race-safe (insert fails for the loser, who then
// re-reads the winner's row).
func PairKeyOf(a, b string) string {
	low, high := CanonicalPair(a, b)
	return low + "|" + high
}
