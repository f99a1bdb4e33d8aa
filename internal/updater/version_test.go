package updater

import (
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
		wantErr  bool
	}{
		{"older patch", "1.0.0", "1.0.1", -1, false},
		{"older build counter", "7", "12", -1, false},
		{"equal", "1.2.3", "1.2.3", 0, false},
		{"equal short form", "2", "2.0.0", 0, false},
		{"newer", "1.1.0", "1.0.0", 1, false},
		{"v prefix", "v1.0.0", "1.0.1", -1, false},
		{"prerelease less than release", "1.0.0-rc.1", "1.0.0", -1, false},
		{"invalid a", "nightly", "1.0.0", 0, true},
		{"invalid b", "1.0.0", "nightly", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CompareVersions(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestShouldApply(t *testing.T) {
	tests := []struct {
		name           string
		live           string
		candidate      string
		allowDowngrade bool
		expected       bool
	}{
		{"nothing live", "", "1.0.0", false, true},
		{"same version", "1.0.0", "1.0.0", false, false},
		{"same after normalization", "v2", "2.0.0", false, false},
		{"newer candidate", "1.0.0", "1.1.0", false, true},
		{"older candidate", "1.1.0", "1.0.0", false, false},
		{"older candidate with downgrade", "1.1.0", "1.0.0", true, true},
		{"unordered versions differ", "nightly-a", "nightly-b", false, true},
		{"unordered versions equal", "nightly-a", "nightly-a", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldApply(tt.live, tt.candidate, tt.allowDowngrade)
			if got != tt.expected {
				t.Errorf("ShouldApply(%q, %q, %v) = %v, want %v", tt.live, tt.candidate, tt.allowDowngrade, got, tt.expected)
			}
		})
	}
}
