// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package pow

// Verify deterministically checks a Result against the Challenge it
// claims to answer: challenge_id must match, the hash must be the
// correct recomputation of SHA-256(nonce ∥ le_bytes(solution_nonce)),
// and that hash must satisfy the challenge's difficulty mask. Any
// mismatch returns false; Verify never panics, even on a zero-value or
// tampered Result.
func Verify(challenge Challenge, result Result) bool {
	if challenge.ChallengeID != result.ChallengeID {
		return false
	}

	want := HashFor(challenge.Nonce, result.SolutionNonce)
	if want != result.Hash {
		return false
	}

	return Satisfies(result.Hash, challenge.Difficulty)
}
