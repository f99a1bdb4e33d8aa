package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sha256("hello")
const helloHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestBytes(t *testing.T) {
	if got := Bytes([]byte("hello")); got != helloHash {
		t.Errorf("Bytes = %s, want %s", got, helloHash)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	if got != helloHash {
		t.Errorf("File = %s, want %s", got, helloHash)
	}
}

func TestFile_Missing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", helloHash, helloHash, true},
		{"upper vs lower", strings.ToUpper(helloHash), helloHash, true},
		{"different", helloHash, Bytes([]byte("world")), false},
		{"empty vs hash", "", helloHash, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{helloHash, true},
		{strings.ToUpper(helloHash), true},
		{helloHash[:63], false},
		{strings.Repeat("z", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	os.WriteFile(path, []byte("hello"), 0644)

	actual, ok, err := Matches(path, strings.ToUpper(helloHash))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected case-insensitive match")
	}
	if actual != helloHash {
		t.Errorf("actual = %s", actual)
	}

	_, ok, err = Matches(path, Bytes([]byte("other")))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected mismatch")
	}
}
