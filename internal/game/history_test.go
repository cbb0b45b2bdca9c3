package game

import "testing"

func TestHistory_AppendAndRecent(t *testing.T) {
	h := NewHistory(5)

	if got := h.Recent(10); len(got) != 0 {
		t.Fatalf("Recent on empty history returned %d entries", len(got))
	}

	for i := int64(1); i <= 3; i++ {
		h.Append(HistoryEntry{RoundID: i, CrashPoint: float64(i)})
	}

	recent := h.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("Recent(10) returned %d entries, want 3", len(recent))
	}
	// Most recent first.
	for i, want := range []int64{3, 2, 1} {
		if recent[i].RoundID != want {
			t.Errorf("recent[%d].RoundID = %d, want %d", i, recent[i].RoundID, want)
		}
	}
}

func TestHistory_EvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(3)
	for i := int64(1); i <= 10; i++ {
		h.Append(HistoryEntry{RoundID: i})
	}

	if h.Size() != 3 {
		t.Fatalf("Size() = %d, want capacity 3", h.Size())
	}

	recent := h.Recent(3)
	for i, want := range []int64{10, 9, 8} {
		if recent[i].RoundID != want {
			t.Errorf("recent[%d].RoundID = %d, want %d", i, recent[i].RoundID, want)
		}
	}
}

func TestHistory_RecentIsAFreshSnapshot(t *testing.T) {
	h := NewHistory(4)
	h.Append(HistoryEntry{RoundID: 1, CrashPoint: 1.5})

	first := h.Recent(1)
	first[0].CrashPoint = 99.0

	second := h.Recent(1)
	if second[0].CrashPoint != 1.5 {
		t.Error("mutating a Recent() result leaked into the ring")
	}
}

func TestHistory_PartialRead(t *testing.T) {
	h := NewHistory(10)
	for i := int64(1); i <= 6; i++ {
		h.Append(HistoryEntry{RoundID: i})
	}

	recent := h.Recent(2)
	if len(recent) != 2 || recent[0].RoundID != 6 || recent[1].RoundID != 5 {
		t.Errorf("Recent(2) = %+v, want rounds 6 then 5", recent)
	}
}
