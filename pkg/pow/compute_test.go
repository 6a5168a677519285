// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package pow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_RoundTripAtDifficulty8(t *testing.T) {
	challenge := Challenge{
		ChallengeID: "t1",
		Nonce:       []byte("abc"),
		Difficulty:  8,
		Deadline:    time.Now().Add(10 * time.Second),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := Compute(ctx, challenge)
	require.NoError(t, err)
	assert.Equal(t, "t1", result.ChallengeID)
	assert.True(t, Verify(challenge, result))

	mutated := result
	mutated.SolutionNonce++
	assert.False(t, Verify(challenge, mutated))
}

func TestCompute_TimesOutWithoutPanicking(t *testing.T) {
	// Difficulty high enough that no searcher will find a solution
	// within the short deadline given.
	challenge := Challenge{
		ChallengeID: "timeout-case",
		Nonce:       []byte("xyz"),
		Difficulty:  64,
		Deadline:    time.Now().Add(20 * time.Millisecond),
	}

	_, err := Compute(context.Background(), challenge)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCompute_RespectsContextCancellation(t *testing.T) {
	challenge := Challenge{
		ChallengeID: "ctx-cancel",
		Nonce:       []byte("abc"),
		Difficulty:  64,
		Deadline:    time.Now().Add(10 * time.Second),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Compute(ctx, challenge)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHashFor_MatchesManualComputation(t *testing.T) {
	h1 := HashFor([]byte("abc"), 42)
	h2 := HashFor([]byte("abc"), 42)
	assert.Equal(t, h1, h2)

	h3 := HashFor([]byte("abc"), 43)
	assert.NotEqual(t, h1, h3)
}
