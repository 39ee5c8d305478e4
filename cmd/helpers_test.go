package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plotloom/plotloom-cli/internal/ai"
	cfgpkg "github.com/plotloom/plotloom-cli/internal/config"
)

func TestMaskKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"gsk_abcdef123456", "gsk_********3456"},
		{"short", "*****"},
		{"12345678", "********"},
		{"", ""},
	}
	for _, c := range cases {
		if got := maskKey(c.in); got != c.want {
			t.Errorf("maskKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHintErrorAuth(t *testing.T) {
	err := hintError(&ai.AuthError{APIError: &ai.APIError{StatusCode: 401, Message: "invalid key"}}, "llama3-70b-8192")
	if !strings.Contains(err.Error(), "plotloom key set") {
		t.Errorf("auth hint missing key-set advice: %v", err)
	}
}

func TestHintErrorRateLimit(t *testing.T) {
	err := hintError(&ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429}, RetryAfter: 7 * time.Second}, "llama3-70b-8192")
	if !strings.Contains(err.Error(), "~7s") {
		t.Errorf("rate limit hint missing retry-after: %v", err)
	}
}

func TestHintErrorPassthrough(t *testing.T) {
	base := errors.New("plain failure")
	if got := hintError(base, "m"); got != base {
		t.Errorf("unrecognized errors should pass through, got %v", got)
	}
}

func TestApplyConfigValue(t *testing.T) {
	c := &cfgpkg.Global{}
	if err := applyConfigValue(c, "default_model", "llama3-8b-8192"); err != nil {
		t.Fatalf("set default_model: %v", err)
	}
	if c.DefaultModel != "llama3-8b-8192" {
		t.Errorf("default_model not applied: %q", c.DefaultModel)
	}
	if err := applyConfigValue(c, "max_rows", "5000"); err != nil {
		t.Fatalf("set max_rows: %v", err)
	}
	if c.MaxRows != 5000 {
		t.Errorf("max_rows not applied: %d", c.MaxRows)
	}
	if err := applyConfigValue(c, "max_rows", "-1"); err == nil {
		t.Error("negative max_rows should be rejected")
	}
	if err := applyConfigValue(c, "chart_format", "gif"); err == nil {
		t.Error("chart_format gif should be rejected")
	}
	if err := applyConfigValue(c, "temperature", "0.4"); err != nil {
		t.Fatalf("set temperature: %v", err)
	}
	if c.Temperature != 0.4 {
		t.Errorf("temperature not applied: %v", c.Temperature)
	}
	if err := applyConfigValue(c, "nope", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}
}
