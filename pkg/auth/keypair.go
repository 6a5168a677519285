// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements agent identity: a persisted Ed25519 keypair,
// the agent_id derivation from its public key, and the challenge/
// response signing used by the Transport's authentication handshake.
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidKeyLength is returned when a key file is not exactly
// ed25519.SeedSize (32) bytes.
var ErrInvalidKeyLength = errors.New("auth: private key file must be exactly 32 bytes")

// Keypair is a long-lived Ed25519 identity. The agent_id is derived
// once at load/generate time and is stable for the keypair's lifetime
// (invariant I3).
type Keypair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	agentID string
}

// LoadOrGenerate loads a 32-byte raw secret from path, or generates and
// persists a fresh one (mode 0600) if the file does not exist.
func LoadOrGenerate(path string) (*Keypair, error) {
	seed, err := os.ReadFile(path)
	if err == nil {
		return fromSeed(seed)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("auth: reading %s: %w", path, err)
	}

	kp, genErr := Generate()
	if genErr != nil {
		return nil, genErr
	}
	if err := kp.Save(path); err != nil {
		return nil, err
	}
	return kp, nil
}

// Load reads a keypair from an existing 32-byte raw secret file.
func Load(path string) (*Keypair, error) {
	seed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading %s: %w", path, err)
	}
	return fromSeed(seed)
}

// Generate creates a fresh random keypair, not yet persisted anywhere.
func Generate() (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("auth: generating seed: %w", err)
	}
	return fromSeed(seed)
}

func fromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeyLength
	}
	private := ed25519.NewKeyFromSeed(seed)
	public := private.Public().(ed25519.PublicKey)
	return &Keypair{
		private: private,
		public:  public,
		agentID: deriveAgentID(public),
	}, nil
}

// deriveAgentID computes "agent-" + hex(SHA-256(public_key)[0:16]).
func deriveAgentID(public ed25519.PublicKey) string {
	sum := sha256.Sum256(public)
	return "agent-" + hex.EncodeToString(sum[:16])
}

// Save persists the raw 32-byte seed to path with mode 0600.
func (k *Keypair) Save(path string) error {
	seed := k.private.Seed()
	if err := os.WriteFile(path, seed, 0o600); err != nil {
		return fmt.Errorf("auth: writing %s: %w", path, err)
	}
	return nil
}

// AgentID returns the derived, stable agent identifier.
func (k *Keypair) AgentID() string {
	return k.agentID
}

// PublicKeyBase64 returns the standard-base64-encoded public key.
func (k *Keypair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.public)
}

// Sign returns the base64-encoded Ed25519 signature over message.
func (k *Keypair) Sign(message []byte) string {
	sig := ed25519.Sign(k.private, message)
	return base64.StdEncoding.EncodeToString(sig)
}

// Verify checks a base64-encoded signature over message against this
// keypair's public key. It never panics: malformed base64 or an
// incorrect signature length both simply yield false.
func (k *Keypair) Verify(message []byte, signatureB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(k.public, message, sig)
}

// RespondToChallenge decodes a base64 challenge nonce, signs it, and
// returns (signature, public_key), both base64, as required by the
// AUTH_RESPONSE handshake step.
func (k *Keypair) RespondToChallenge(challengeB64 string) (signatureB64, publicKeyB64 string, err error) {
	challenge, err := base64.StdEncoding.DecodeString(challengeB64)
	if err != nil {
		return "", "", fmt.Errorf("auth: decoding challenge: %w", err)
	}
	return k.Sign(challenge), k.PublicKeyBase64(), nil
}
