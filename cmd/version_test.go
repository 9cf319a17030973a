package cmd

import (
	"strings"
	"testing"
)

func TestDescribeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: "Not set"},
		{name: "short key not echoed", key: "abc", want: "configured"},
		{name: "long key masked", key: "AIzaSyExampleKey1234", want: "AIza...1234 (configured)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := describeAPIKey(tt.key)
			if got != tt.want {
				t.Errorf("describeAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestDescribeAPIKey_NeverLeaksFullKey(t *testing.T) {
	t.Parallel()

	key := "AIzaSySecretSecretSecret"
	if got := describeAPIKey(key); strings.Contains(got, key) {
		t.Errorf("describeAPIKey leaked the full key: %q", got)
	}
}
