package gcgen

import "testing"

func TestDefaultThresholds(t *testing.T) {
	th := NewThresholds()
	tests := []struct {
		gen  int
		want int
	}{
		{0, 700},
		{1, 10},
		{2, 10},
	}
	for _, tt := range tests {
		if got := th.Get(tt.gen); got != tt.want {
			t.Errorf("Get(%d) = %d, want %d", tt.gen, got, tt.want)
		}
	}
}

func TestSetThresholdBounds(t *testing.T) {
	th := NewThresholds()
	if err := th.Set(3, 1); err != ErrInvalidGeneration {
		t.Errorf("Set(3, 1) = %v, want ErrInvalidGeneration", err)
	}
	if got := th.Get(3); got != -1 {
		t.Errorf("Get(3) = %d, want -1", got)
	}
	if err := th.Set(0, 1000); err != nil {
		t.Fatalf("Set(0, 1000) = %v, want nil", err)
	}
	if got := th.Get(0); got != 1000 {
		t.Errorf("Get(0) = %d, want 1000", got)
	}
	if err := th.Set(0, -1); err == nil {
		t.Errorf("Set(0, -1) = nil, want error")
	}
}

func TestNeedsCollectionRules(t *testing.T) {
	th := NewThresholds()
	_ = th.Set(0, 2)
	_ = th.Set(1, 2)
	_ = th.Set(2, 2)

	if g := th.NeedsCollection(); g != -1 {
		t.Fatalf("NeedsCollection() = %d, want -1 before any allocation", g)
	}

	th.RecordAllocation()
	th.RecordAllocation()
	if g := th.NeedsCollection(); g != 0 {
		t.Fatalf("NeedsCollection() = %d, want 0 after 2 allocations", g)
	}

	th.RecordCollection(0)
	if got := th.a0; got != 0 {
		t.Errorf("a0 after collect(0) = %d, want 0", got)
	}
	if got := th.c1; got != 1 {
		t.Errorf("c1 after collect(0) = %d, want 1", got)
	}

	th.RecordCollection(0)
	if g := th.NeedsCollection(); g != 1 {
		t.Fatalf("NeedsCollection() = %d, want 1 once c1 reaches threshold", g)
	}

	th.RecordCollection(1)
	if got := th.c1; got != 0 {
		t.Errorf("c1 after collect(1) = %d, want 0", got)
	}
	if got := th.c2; got != 1 {
		t.Errorf("c2 after collect(1) = %d, want 1", got)
	}

	th.RecordCollection(2)
	if got := th.c2; got != 0 {
		t.Errorf("c2 after collect(2) = %d, want 0", got)
	}
}

func TestZeroThresholdDisablesRule(t *testing.T) {
	th := NewThresholds()
	_ = th.Set(0, 0)
	th.RecordAllocation()
	if g := th.NeedsCollection(); g != -1 {
		t.Errorf("NeedsCollection() = %d, want -1 with T0=0", g)
	}
}
