package fonts

import "testing"

func TestLoad(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Font(false) == nil || s.Font(true) == nil {
		t.Fatal("Load() returned a nil face")
	}
	if s.Font(true) == s.Font(false) {
		t.Error("bold and regular faces should differ")
	}

	again, _ := Load()
	if again.Regular != s.Regular {
		t.Error("Load() should parse once")
	}
}
