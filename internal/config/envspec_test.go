package config_test

import (
	"fmt"
	"testing"

	cfg "github.com/ArkLabsHQ/dunder/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestEnvSpecs(t *testing.T) {
	specs := cfg.EnvSpecs()
	require.NotEmpty(t, specs)

	seen := make(map[string]struct{})
	for _, s := range specs {
		require.NotEmpty(t, s.Name)
		require.Equal(t, "DUNDER_"+s.Name, s.FullName)
		require.NotEmpty(t, s.Type, "missing type for %s", s.Name)
		require.NotEmpty(t, s.Description, "missing description for %s", s.Name)

		_, dup := seen[s.Name]
		require.False(t, dup, "duplicated env var %s", s.Name)
		seen[s.Name] = struct{}{}
	}

	for _, name := range []string{
		"DATADIR", "DB_TYPE", "HTTP_PORT", "LND_URL", "HTLC_WAIT", "FEE_MAX_SAT",
		"CHANNEL_OPEN_ATTEMPTS", "AUTO_HEAL_INTERVAL",
	} {
		require.Contains(t, seen, name)
	}
}

func TestSpecMatchesViperDefaults(t *testing.T) {
	v := viper.New()
	v.SetEnvPrefix("DUNDER")

	for _, s := range cfg.EnvSpecs() {
		if s.Default != "" {
			v.SetDefault(s.Name, s.Default)
		}
	}

	for _, s := range cfg.EnvSpecs() {
		if s.Default == "" {
			continue
		}
		got := v.Get(s.Name)
		require.Equal(t, s.Default, coerce(got), "default mismatch for %s", s.Name)
	}
}

func coerce(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", x)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32, float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
