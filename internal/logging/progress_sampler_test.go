package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	var logged []int
	for done := 1; done <= 8; done++ {
		if s.ShouldLog(done, 8) {
			logged = append(logged, done)
		}
	}
	want := []int{1, 2, 4, 6, 8}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
}

func TestProgressSamplerDefaultsAndNil(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	var s *ProgressSampler
	if !s.ShouldLog(1, 100) {
		t.Fatal("nil sampler should always log")
	}
	if !NewProgressSampler(10).ShouldLog(0, 0) {
		t.Fatal("unknown total should log")
	}
}
