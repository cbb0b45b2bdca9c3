package game

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GenerateSeed creates a cryptographically secure random seed. The crash
// draw must never come from a client-visible RNG; seeds are produced
// server-side and committed to before bets close.
func GenerateSeed() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HashCommitment is the SHA-256 commitment to a server seed, broadcast at
// round start so the later reveal can be checked.
func HashCommitment(seed string) string {
	h := sha256.New()
	h.Write([]byte(seed))
	return hex.EncodeToString(h.Sum(nil))
}

// hashToUnits derives two independent uniform floats in [0,1) from
// HMAC-SHA256(serverSeed, clientSeed:nonce). The first selects the crash
// tier, the second picks the point within the tier.
func hashToUnits(serverSeed, clientSeed string, nonce int64) (float64, float64) {
	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s:%d", clientSeed, nonce)
	sum := h.Sum(nil)

	const maxUint64 = float64(1 << 63) * 2 // 2^64
	u1 := float64(binary.BigEndian.Uint64(sum[0:8])) / maxUint64
	u2 := float64(binary.BigEndian.Uint64(sum[8:16])) / maxUint64
	return u1, u2
}

// VerifyCommitment checks that a revealed server seed matches the
// commitment published before the round.
func VerifyCommitment(serverSeed, commitment string) bool {
	return HashCommitment(serverSeed) == commitment
}

// VerifyRound recomputes the crash point from revealed seeds and compares
// it to the claimed value, tolerating float rounding.
func VerifyRound(serverSeed, clientSeed string, nonce int64, claimed float64) bool {
	diff := ComputeCrashPoint(serverSeed, clientSeed, nonce) - claimed
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.005
}
