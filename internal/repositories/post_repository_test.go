package repositories

import (
	"errors"
	"testing"
)

func TestEnsureUniqueSlug(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken map[string]bool
		want  string
	}{
		{
			name:  "base free",
			base:  "hello-world",
			taken: map[string]bool{},
			want:  "hello-world",
		},
		{
			name:  "base taken",
			base:  "hello-world",
			taken: map[string]bool{"hello-world": true},
			want:  "hello-world-1",
		},
		{
			name: "several collisions",
			base: "hello-world",
			taken: map[string]bool{
				"hello-world":   true,
				"hello-world-1": true,
				"hello-world-2": true,
			},
			want: "hello-world-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureUniqueSlug(tt.base, func(s string) (bool, error) {
				return tt.taken[s], nil
			})
			if err != nil {
				t.Fatalf("EnsureUniqueSlug failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EnsureUniqueSlug(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestEnsureUniqueSlugPropagatesLookupError(t *testing.T) {
	lookupErr := errors.New("lookup failed")
	_, err := EnsureUniqueSlug("hello", func(string) (bool, error) {
		return false, lookupErr
	})
	if !errors.Is(err, lookupErr) {
		t.Errorf("error = %v, want wrapped lookup error", err)
	}
}
