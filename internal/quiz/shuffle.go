package quiz

import "math/rand/v2"

// Shuffle returns a uniformly random permutation of in. The input is never modified.
func Shuffle[T any](in []T) []T {
	shuffled := make([]T, len(in))
	copy(shuffled, in)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}

// EffectiveCount resolves a requested question count against the bank size.
// Zero selects the whole bank.
func EffectiveCount(requested, bankSize int) int {
	if requested <= 0 || requested > bankSize {
		return bankSize
	}
	return requested
}
