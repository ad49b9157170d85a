package kernel

import "testing"

func TestSimplifyLevel(t *testing.T) {
	u := &LParam{Name: "u"}
	v := &LParam{Name: "v"}
	tests := []struct {
		name string
		in   Level
		want string
	}{
		{"numeral", LevelOf(2), "2"},
		{"max of numerals", &LMax{A: LevelOf(1), B: LevelOf(3)}, "3"},
		{"max absorbs smaller offset", &LMax{A: u, B: Succ(u)}, "u+1"},
		{"max drops dominated zero", &LMax{A: LZero{}, B: u}, "u"},
		{"max keeps larger numeral", &LMax{A: u, B: LevelOf(1)}, "max(1, u)"},
		{"nested max is flattened", &LMax{A: &LMax{A: v, B: u}, B: v}, "max(u, v)"},
		{"imax with zero", &LIMax{A: u, B: LZero{}}, "0"},
		{"imax with successor", &LIMax{A: u, B: LevelOf(1)}, "max(1, u)"},
		{"imax stays opaque", &LIMax{A: u, B: v}, "imax(u, v)"},
		{"succ distributes over max", Succ(&LMax{A: u, B: LevelOf(1)}), "max(2, u+1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SimplifyLevel(tt.in).String(); got != tt.want {
				t.Errorf("SimplifyLevel(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelEqual(t *testing.T) {
	u := &LParam{Name: "u"}
	if !LevelEqual(&LMax{A: u, B: u}, u) {
		t.Error("max(u, u) should equal u")
	}
	if !LevelEqual(&LMax{A: LevelOf(1), B: u}, &LMax{A: u, B: LevelOf(1)}) {
		t.Error("max should be commutative")
	}
	if LevelEqual(u, &LParam{Name: "v"}) {
		t.Error("distinct parameters should differ")
	}
}

func TestInstantiateLevelParams(t *testing.T) {
	u := &LParam{Name: "u"}
	got := InstantiateLevelParams(Succ(&LMax{A: u, B: &LParam{Name: "w"}}), []string{"u"}, []Level{LevelOf(2)})
	if s := SimplifyLevel(got).String(); s != "max(3, w+1)" {
		t.Errorf("got %s", s)
	}
}

func TestLevelHasMVar(t *testing.T) {
	m := FreshLevelMVar()
	if !LevelHasMVar(Succ(&LMax{A: LZero{}, B: m})) {
		t.Error("metavariable under succ and max not found")
	}
	if LevelHasMVar(&LParam{Name: "u"}) {
		t.Error("parameter reported as metavariable")
	}
}
