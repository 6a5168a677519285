// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package pow

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"runtime"
	"time"
)

// DefaultTimeout is the wall-clock bound on a CPU-parallel search.
const DefaultTimeout = 10 * time.Second

// ErrTimeout is returned when no solution is found within the deadline.
var ErrTimeout = errors.New("pow: search exceeded wall-clock bound")

// Challenge is a proof-of-GPU-work request: find a solution_nonce such
// that SHA-256(Nonce ∥ le_bytes(solution_nonce)) satisfies Difficulty
// leading zero bits, before Deadline.
type Challenge struct {
	ChallengeID string
	Nonce       []byte
	Difficulty  uint32
	Deadline    time.Time
}

// Result is a computed proof-of-work solution.
type Result struct {
	ChallengeID   string
	SolutionNonce uint64
	Hash          [HashSize]byte
	ElapsedMS     int64
}

// Compute searches for a solution to challenge using T = runtime.NumCPU()
// cooperating searchers, each striding over the solution_nonce space by
// T: searcher t tries {t, t+T, t+2T, ...}. The first searcher to find a
// satisfying hash posts its result on a one-shot channel; every other
// searcher observes the close and stops at its next bound check. The
// search is bounded by the shorter of ctx's deadline and challenge's own
// Deadline; a challenge with no Deadline is given one DefaultTimeout
// from now, whether or not ctx has a deadline of its own.
func Compute(ctx context.Context, challenge Challenge) (Result, error) {
	deadline := challenge.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(DefaultTimeout)
	}
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	start := time.Now()
	threads := runtime.NumCPU()
	if threads < 1 {
		threads = 1
	}

	type found struct {
		nonce uint64
		hash  [HashSize]byte
	}
	winner := make(chan found, 1)
	done := make(chan struct{})

	for t := 0; t < threads; t++ {
		stride := uint64(threads)
		offset := uint64(t)
		go func() {
			var nonceBuf [8]byte
			n := offset
			for {
				select {
				case <-ctx.Done():
					return
				case <-done:
					return
				default:
				}

				binary.LittleEndian.PutUint64(nonceBuf[:], n)
				h := sha256.Sum256(append(append([]byte{}, challenge.Nonce...), nonceBuf[:]...))
				if Satisfies(h, challenge.Difficulty) {
					select {
					case winner <- found{nonce: n, hash: h}:
						close(done)
					default:
					}
					return
				}

				if n > ^uint64(0)-stride {
					return // nonce space exhausted for this searcher
				}
				n += stride
			}
		}()
	}

	select {
	case w := <-winner:
		return Result{
			ChallengeID:   challenge.ChallengeID,
			SolutionNonce: w.nonce,
			Hash:          w.hash,
			ElapsedMS:     time.Since(start).Milliseconds(),
		}, nil
	case <-ctx.Done():
		return Result{}, ErrTimeout
	}
}

// HashFor recomputes SHA-256(nonce ∥ le_bytes(solutionNonce)).
func HashFor(nonce []byte, solutionNonce uint64) [HashSize]byte {
	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], solutionNonce)
	return sha256.Sum256(append(append([]byte{}, nonce...), nonceBuf[:]...))
}
