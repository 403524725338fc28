package batch

import "testing"

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		size       int
		maxBatches int
		wantLens   []int
	}{
		{"empty", 0, 100, 0, nil},
		{"single short batch", 7, 100, 0, []int{7}},
		{"exact multiple", 200, 100, 0, []int{100, 100}},
		{"short final batch", 250, 100, 0, []int{100, 100, 50}},
		{"max batches caps output", 250, 100, 2, []int{100, 100}},
		{"max batches above total", 150, 100, 10, []int{100, 50}},
		{"zero size treated as one", 3, 0, 0, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(seq(tt.items), tt.size, tt.maxBatches)
			if len(got) != len(tt.wantLens) {
				t.Fatalf("got %d batches, want %d", len(got), len(tt.wantLens))
			}
			for i, b := range got {
				if len(b) != tt.wantLens[i] {
					t.Errorf("batch %d has %d items, want %d", i, len(b), tt.wantLens[i])
				}
			}
		})
	}
}

func TestChunkPreservesOrder(t *testing.T) {
	batches := Chunk(seq(250), 100, 0)

	next := 0
	for _, b := range batches {
		for _, v := range b {
			if v != next {
				t.Fatalf("item out of order: got %d, want %d", v, next)
			}
			next++
		}
	}
	if next != 250 {
		t.Errorf("saw %d items, want 250", next)
	}
}
