package game

const MinCrashPoint = 1.01

// crashTier is one band of the tiered crash distribution.
type crashTier struct {
	Cumulative float64 // upper bound of the cumulative probability
	Lo, Hi     float64 // half-open multiplier range [Lo, Hi)
}

// crashTiers partitions a uniform draw into four weighted bands:
// 50% land in [1.01, 2), 30% in [2, 5), 15% in [5, 15), 5% in [15, 50).
var crashTiers = []crashTier{
	{Cumulative: 0.50, Lo: 1.01, Hi: 2.00},
	{Cumulative: 0.80, Lo: 2.00, Hi: 5.00},
	{Cumulative: 0.95, Lo: 5.00, Hi: 15.00},
	{Cumulative: 1.00, Lo: 15.00, Hi: 50.00},
}

// MapUnitsToCrashPoint selects a tier by cumulative probability on u1 and
// draws uniformly within the tier's range using u2. Both inputs must be
// in [0,1).
func MapUnitsToCrashPoint(u1, u2 float64) float64 {
	for _, tier := range crashTiers {
		if u1 < tier.Cumulative {
			cp := truncate2(tier.Lo + u2*(tier.Hi-tier.Lo))
			if cp < MinCrashPoint {
				cp = MinCrashPoint
			}
			return cp
		}
	}
	// u1 is in [0,1) so the loop always returns; this is unreachable.
	return MinCrashPoint
}

// ComputeCrashPoint derives the crash point for a round from its seeds.
// Deterministic, so anyone holding the revealed server seed can replay it.
func ComputeCrashPoint(serverSeed, clientSeed string, nonce int64) float64 {
	u1, u2 := hashToUnits(serverSeed, clientSeed, nonce)
	return MapUnitsToCrashPoint(u1, u2)
}

// CrashDraw is everything fixed at round creation: the seeds, the
// commitment published to players, and the crash point withheld until the
// round ends.
type CrashDraw struct {
	ServerSeed string
	ClientSeed string
	Commitment string
	Nonce      int64
	CrashPoint float64
}

// DrawCrashPoint generates fresh seeds and the crash point for one round.
// Called exactly once per round at creation.
func DrawCrashPoint(nonce int64) CrashDraw {
	serverSeed := GenerateSeed()
	// In production the client seed would aggregate player contributions.
	clientSeed := GenerateSeed()
	return CrashDraw{
		ServerSeed: serverSeed,
		ClientSeed: clientSeed,
		Commitment: HashCommitment(serverSeed),
		Nonce:      nonce,
		CrashPoint: ComputeCrashPoint(serverSeed, clientSeed, nonce),
	}
}
