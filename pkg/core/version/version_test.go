package version

import (
	"regexp"
	"testing"
)

func TestComponent(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"server", Server},
		{"catalog", Catalog},
		{"anything", Server},
	}
	for _, tt := range tests {
		if got := Component(tt.name); got != tt.want {
			t.Errorf("Component(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestServerNotEmpty(t *testing.T) {
	if Server == "" {
		t.Error("Server version must be set")
	}
}

func TestServerIsSemver(t *testing.T) {
	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(Server) {
		t.Errorf("Server = %q is not x.y.z", Server)
	}
}
