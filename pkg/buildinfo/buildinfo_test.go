package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	tmpl := Template()
	for _, want := range []string{"v1.2.3", "abc123", "2026-01-01", "{{.Name}}"} {
		if !strings.Contains(tmpl, want) {
			t.Errorf("Template() = %q, missing %q", tmpl, want)
		}
	}
	if got := UserAgent(); got != "twill/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
}
