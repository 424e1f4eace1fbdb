package service

import "testing"

func TestCreateAndFind(t *testing.T) {
	r := NewRegistry()
	id1 := r.CreateGame(5)
	id2 := r.CreateGame(3)
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("game ids must be distinct and non-empty, got %q and %q", id1, id2)
	}

	g, ok := r.Find(id1)
	if !ok || g.ID != id1 {
		t.Errorf("Find(%q) = %v, %v", id1, g, ok)
	}
	if _, ok := r.Find("no-such-game"); ok {
		t.Error("Find returned a game for an unknown id")
	}
}
