package stage

import "testing"

func TestPrefix(t *testing.T) {
	cases := []struct {
		stage Stage
		want  string
	}{
		{Blowroom, "BL"},
		{Carding, "CR"},
		{Passage, "PS"},
		{Finisher, "FN"},
		{Spinning, "SP"},
		{Winding, "WD"},
		{TFO, "TFO"},
		{Heatset, "HS"},
		{Dyeing, "DY"},
		{Stage("unknown"), "FB"},
	}
	for _, c := range cases {
		if got := Prefix(c.stage); got != c.want {
			t.Errorf("Prefix(%s) = %s, want %s", c.stage, got, c.want)
		}
	}
}

func TestFiberPrefix(t *testing.T) {
	if got := FiberPrefix("PES"); got != "PES" {
		t.Errorf("expected PES, got %s", got)
	}
	if got := FiberPrefix("XYZ"); got != "FB" {
		t.Errorf("unknown category should fall back to FB, got %s", got)
	}
}

func TestRankOrdering(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		prev, _ := Rank(all[i-1])
		cur, ok := Rank(all[i])
		if !ok {
			t.Fatalf("stage %s has no rank", all[i])
		}
		if cur <= prev {
			t.Errorf("rank of %s (%d) not above %s (%d)", all[i], cur, all[i-1], prev)
		}
	}
}

func TestSourceAllowed(t *testing.T) {
	cases := []struct {
		downstream, source Stage
		want               bool
	}{
		{Passage, Carding, true},
		{Passage, Passage, true},
		{Passage, Blowroom, false},
		{Carding, Blowroom, true},
		{Carding, Spinning, false},
		{Dyeing, Heatset, true},
		{Dyeing, Winding, true},
		{Dyeing, Spinning, false},
		{Fiber, Fiber, false},
	}
	for _, c := range cases {
		if got := SourceAllowed(c.downstream, c.source); got != c.want {
			t.Errorf("SourceAllowed(%s, %s) = %v, want %v", c.downstream, c.source, got, c.want)
		}
	}
}

func TestMaxInputs(t *testing.T) {
	if got := MaxInputs(Passage); got != 8 {
		t.Errorf("passage max inputs = %d, want 8", got)
	}
	if got := MaxInputs(Spinning); got != 1 {
		t.Errorf("spinning max inputs = %d, want 1", got)
	}
	if got := MaxInputs(Fiber); got != 0 {
		t.Errorf("fiber max inputs = %d, want 0", got)
	}
}
