package environment_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bdobrica/goomy/common/environment"
)

func TestEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv("GOOMY_TEST_ADDR", ":9090")
	env := environment.New("GOOMY_")

	if got := env.StringOr("TEST_ADDR", ":8080"); got != ":9090" {
		t.Errorf("StringOr = %q, want :9090", got)
	}
	if got := env.StringOr("TEST_MISSING", ":8080"); got != ":8080" {
		t.Errorf("StringOr(missing) = %q, want default", got)
	}
	if got := env.Name("LOG_LEVEL"); got != "GOOMY_LOG_LEVEL" {
		t.Errorf("Name = %q", got)
	}
}

func TestEnv_Getters(t *testing.T) {
	env := environment.FromMap("G_", map[string]string{
		"G_PACING":  "false",
		"G_BAD":     "not-a-value",
		"G_COUNT":   " 42 ",
		"G_SEED":    "18446744073709551615",
		"G_IDLE":    "45m",
		"G_ROOMS":   "!a:x, ,!b:x",
		"G_BLANK":   "   ",
		"G_NEEDED":  "yes",
		"G_OTHER_1": "ignored",
	})

	if env.BoolOr("PACING", true) {
		t.Error("BoolOr(PACING) = true, want false")
	}
	if !env.BoolOr("BAD", true) {
		t.Error("BoolOr(BAD) ignored the default")
	}
	if got := env.IntOr("COUNT", 0); got != 42 {
		t.Errorf("IntOr = %d, want 42", got)
	}
	if got := env.IntOr("BAD", 7); got != 7 {
		t.Errorf("IntOr(BAD) = %d, want 7", got)
	}
	if got := env.Uint64Or("SEED", 0); got != 18446744073709551615 {
		t.Errorf("Uint64Or = %d", got)
	}
	if got := env.DurationOr("IDLE", time.Minute); got != 45*time.Minute {
		t.Errorf("DurationOr = %v, want 45m", got)
	}
	if got := env.DurationOr("BAD", time.Minute); got != time.Minute {
		t.Errorf("DurationOr(BAD) = %v, want 1m", got)
	}
	if diff := cmp.Diff([]string{"!a:x", "!b:x"}, env.StringsOr("ROOMS", nil)); diff != "" {
		t.Errorf("StringsOr mismatch (-want +got):\n%s", diff)
	}
	if got := env.StringsOr("BLANK", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Errorf("StringsOr(BLANK) = %v, want default", got)
	}

	if v, err := env.Required("NEEDED"); err != nil || v != "yes" {
		t.Errorf("Required(NEEDED) = %q, %v", v, err)
	}
	if _, err := env.Required("BLANK"); err == nil {
		t.Error("Required(BLANK) returned no error")
	}
}
