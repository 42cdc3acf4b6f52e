package version

import (
	"strings"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "dev"
	if got := GetFullVersion(); !strings.HasPrefix(got, "counterbot/dev (commit: ") {
		t.Errorf("GetFullVersion() = %q", got)
	}

	Version = "1.2.3"
	if got := GetFullVersion(); got != "counterbot/1.2.3" {
		t.Errorf("GetFullVersion() = %q, want counterbot/1.2.3", got)
	}
	if info := GetInfo(); info.Name != "counterbot" || info.Version != "1.2.3" {
		t.Errorf("GetInfo() = %+v", info)
	}
}
