package version

import (
	"runtime"
	"testing"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.InstanceID == "" {
		t.Error("InstanceID should not be empty")
	}
	if info.Hostname == "" {
		t.Error("Hostname should not be empty")
	}

	again := GetInfo()
	if info.InstanceID != again.InstanceID {
		t.Errorf("InstanceID changed between calls: %s then %s", info.InstanceID, again.InstanceID)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{
			name:     "release build",
			info:     Info{Version: "1.4.0", GitCommit: "9f1c2ab", BuildDate: "2026-10-01T08:00:00Z"},
			expected: "storefront 1.4.0 (commit: 9f1c2ab, built: 2026-10-01T08:00:00Z)",
		},
		{
			name:     "local build",
			info:     Info{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"},
			expected: "storefront dev (commit: unknown, built: unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetInfoReportsRuntime(t *testing.T) {
	info := GetInfo()
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Version != Version || info.GitCommit != GitCommit {
		t.Errorf("build fields not copied: %+v", info)
	}
}
