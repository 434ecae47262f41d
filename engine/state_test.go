package engine

import (
	"encoding/json"
	"testing"
)

func TestToggleSelect(t *testing.T) {
	g := startedMatch(t, 2, 61)

	g.ToggleSelect(1)
	g.ToggleSelect(2)
	if len(g.SelectedCardIDs) != 2 {
		t.Fatalf("selection = %v, want two ids", g.SelectedCardIDs)
	}

	// A third pick evicts the oldest.
	g.ToggleSelect(3)
	if len(g.SelectedCardIDs) != 2 || g.SelectedCardIDs[0] != 2 || g.SelectedCardIDs[1] != 3 {
		t.Errorf("selection = %v, want [2 3]", g.SelectedCardIDs)
	}

	// Re-picking deselects.
	g.ToggleSelect(2)
	if len(g.SelectedCardIDs) != 1 || g.SelectedCardIDs[0] != 3 {
		t.Errorf("selection = %v, want [3]", g.SelectedCardIDs)
	}

	// Selection is ignored outside turn start.
	g.Phase = PhaseDraw
	g.ToggleSelect(9)
	if len(g.SelectedCardIDs) != 1 {
		t.Errorf("selection changed during %s", g.Phase)
	}

	g.Phase = PhaseTurnStart
	g.ClearSelection()
	if g.SelectedCardIDs != nil {
		t.Errorf("selection = %v after clear", g.SelectedCardIDs)
	}
}

func TestWinners(t *testing.T) {
	g := &GameState{Players: []Player{
		{ID: 0, Name: "A", TotalScore: 30},
		{ID: 1, Name: "B", TotalScore: 12},
		{ID: 2, Name: "C", TotalScore: 12},
	}}
	w := g.Winners()
	if len(w) != 2 || w[0].ID != 1 || w[1].ID != 2 {
		t.Errorf("winners = %v, want the two tied players", w)
	}
	if w := (&GameState{}).Winners(); w != nil {
		t.Errorf("winners of empty match = %v, want nil", w)
	}
}

// TestCloneIsDeep verifies a clone does not share mutable storage.
func TestCloneIsDeep(t *testing.T) {
	g := startedMatch(t, 2, 67)
	c := g.Clone()

	g.Players[0].Hand[0] = card(99, RankAce, Hearts)
	g.Deck[0] = card(98, RankAce, Spades)
	g.TurnLog[0] = "mutated"

	if c.Players[0].Hand[0].ID == 99 {
		t.Error("clone shares hand storage")
	}
	if c.Deck[0].ID == 98 {
		t.Error("clone shares deck storage")
	}
	if c.TurnLog[0] == "mutated" {
		t.Error("clone shares turn log storage")
	}
}

// TestSnapshotRoundTrip: the JSON snapshot schema reproduces the state a
// room record carries; selection ids never leak into it.
func TestSnapshotRoundTrip(t *testing.T) {
	g := startedMatch(t, 3, 71)
	g.ToggleSelect(1)

	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back GameState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Phase != g.Phase || back.RoundNumber != g.RoundNumber ||
		back.CurrentPlayerIndex != g.CurrentPlayerIndex {
		t.Error("snapshot lost turn position")
	}
	if len(back.Players) != 3 || len(back.Players[0].Hand) != CardsPerHand {
		t.Error("snapshot lost hands")
	}
	if back.RoundJoker == nil || back.RoundJoker.Rank != g.RoundJoker.Rank {
		t.Error("snapshot lost the round joker")
	}
	if back.SelectedCardIDs != nil {
		t.Error("selection bookkeeping leaked into the snapshot")
	}

	// A deserialized snapshot must remain playable.
	back.Reseed(5)
	p := back.CurrentPlayer()
	if err := back.Discard(p.Hand[0].ID); err != nil {
		t.Errorf("snapshot state rejected a legal action: %v", err)
	}
}
