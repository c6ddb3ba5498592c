package scratch

import "testing"

func TestGetFloatsLength(t *testing.T) {
	b := GetFloats(10)
	if len(b) != 10 {
		t.Fatalf("len = %d, want 10", len(b))
	}
	PutFloats(b)
}

func TestGetFloatsLargerThanLargestBucket(t *testing.T) {
	b := GetFloats(Elems16K + 1)
	if len(b) != Elems16K+1 {
		t.Fatalf("len = %d, want %d", len(b), Elems16K+1)
	}
	PutFloats(b)
}

