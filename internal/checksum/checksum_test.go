package checksum

import "testing"

func TestSum_Deterministic(t *testing.T) {
	data := []byte("hello world")
	if Sum(data) != Sum(data) {
		t.Error("Sum should be deterministic for identical input")
	}
}

func TestSum_DifferentInputsDifferentSums(t *testing.T) {
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("Sum should differ for different input")
	}
}

func TestSum_KnownVector(t *testing.T) {
	// SHA-256 of the empty string.
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != want {
		t.Errorf("Sum(nil) = %q, want %q", got, want)
	}
}
