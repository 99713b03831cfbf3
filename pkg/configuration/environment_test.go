package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env.local"), []byte("COURSECRAFT_TEST_ENV_LOAD=ok\n"), 0o644))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	_ = os.Unsetenv("COURSECRAFT_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("COURSECRAFT_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("COURSECRAFT_TEST_ENV_LOAD"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(t.TempDir()))

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestRateLimitOptionsValidate(t *testing.T) {
	valid := RateLimitOptions{
		Enabled:        true,
		IntakeRequests: 60,
		IntakePeriod:   time.Minute,
		Storage:        "memory",
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(o *RateLimitOptions)
	}{
		{"negative requests", func(o *RateLimitOptions) { o.IntakeRequests = -1 }},
		{"zero period", func(o *RateLimitOptions) { o.IntakePeriod = 0 }},
		{"unknown storage", func(o *RateLimitOptions) { o.Storage = "etcd" }},
		{"redis without url", func(o *RateLimitOptions) { o.Storage = "redis"; o.RedisURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid
			tc.mutate(&opts)
			require.Error(t, opts.Validate())
		})
	}
}
