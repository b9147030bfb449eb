package internal

import "testing"

func partitionsWith(sizes ...int) []Partition[int] {
	parts := make([]Partition[int], len(sizes))
	for k, n := range sizes {
		parts[k].Data = make([]int, n)
		parts[k].Sync()
	}
	return parts
}

func TestLocate(t *testing.T) {
	parts := partitionsWith(3, 0, 2, 0, 4)
	prefix := make([]int, len(parts)+1)
	if total := PrefixSums(parts, prefix); total != 9 {
		t.Fatalf("Expected total 9, got %d", total)
	}

	tests := []struct {
		i, part, off int
		ok           bool
	}{
		{0, 0, 0, true},
		{2, 0, 2, true},
		{3, 2, 0, true},
		{4, 2, 1, true},
		{5, 4, 0, true},
		{8, 4, 3, true},
		{9, 0, 0, false},
		{-1, 0, 0, false},
	}

	for _, tt := range tests {
		part, off, ok := Locate(prefix, tt.i)
		if ok != tt.ok || (ok && (part != tt.part || off != tt.off)) {
			t.Errorf("Locate(%d) = (%d, %d, %v), want (%d, %d, %v)", tt.i, part, off, ok, tt.part, tt.off, tt.ok)
		}
	}
}

func TestLocateEmpty(t *testing.T) {
	parts := partitionsWith(0, 0)
	prefix := make([]int, 3)
	PrefixSums(parts, prefix)
	if _, _, ok := Locate(prefix, 0); ok {
		t.Errorf("Expected no partition for an empty container")
	}
}

func TestSelector(t *testing.T) {
	pow := NewSelector(16)
	if !pow.PowerOfTwo() || pow.Pick(17) != 1 {
		t.Errorf("Expected mask selection for 16 partitions")
	}

	mod := NewSelector(6)
	if mod.PowerOfTwo() || mod.Pick(13) != 1 {
		t.Errorf("Expected modulo selection for 6 partitions")
	}

	counts := make([]int, 6)
	for i := uint64(0); i < 600; i++ {
		counts[mod.Pick(i)]++
	}
	for k, c := range counts {
		if c != 100 {
			t.Errorf("Partition %d got %d tickets, want 100", k, c)
		}
	}
}

func TestPartitionDeleteAndReset(t *testing.T) {
	var p Partition[int]
	p.Data = []int{0, 1, 2, 3, 4}
	p.Sync()

	p.Delete(1, 3)
	if p.Len() != 3 || p.Data[0] != 0 || p.Data[1] != 3 || p.Data[2] != 4 {
		t.Errorf("Unexpected data after delete: %v (len %d)", p.Data, p.Len())
	}

	p.Delete(-5, 100)
	if p.Len() != 0 {
		t.Errorf("Expected clamped delete to empty the partition, got %v", p.Data)
	}

	p.Data = append(p.Data, 7)
	p.Sync()
	p.Reset()
	if p.Len() != 0 || cap(p.Data) == 0 {
		t.Errorf("Reset should keep capacity and zero the count")
	}
}
