package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vdye/git-odb-refs/internal/odb"
)

func TestLoad(t *testing.T) {
	input := `
repository = "/srv/repo.git/"
backend = "pebble"
prometheus_listen_addr = "localhost:9236"
tag_cache_size = 64

[logging]
format = "json"
level = "debug"
`

	cfg, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, Cfg{
		Repository:           "/srv/repo.git",
		Backend:              "pebble",
		PrometheusListenAddr: "localhost:9236",
		TagCacheSize:         64,
		Logging:              cfg.Logging,
	}, cfg)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "/srv/repo.git/odb-over-ipc", cfg.SocketPath())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, "filesystem", cfg.Backend)
	require.Equal(t, odb.DefaultTagCacheSize, cfg.TagCacheSize)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GIT_ODB_BACKEND", "memory")
	t.Setenv("GIT_ODB_TAG_CACHE_SIZE", "7")
	t.Setenv("GIT_ODB_LOGGING_LEVEL", "warn")

	cfg, err := Load(strings.NewReader(`backend = "pebble"`))
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Backend)
	require.Equal(t, 7, cfg.TagCacheSize)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidToml(t *testing.T) {
	_, err := Load(strings.NewReader("backend = "))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		desc    string
		cfg     Cfg
		wantErr string
	}{
		{
			desc: "valid",
			cfg:  Cfg{Repository: dir, Backend: "filesystem"},
		},
		{
			desc:    "unknown backend",
			cfg:     Cfg{Repository: dir, Backend: "svn"},
			wantErr: "unknown backend",
		},
		{
			desc:    "gremlin without url",
			cfg:     Cfg{Repository: dir, Backend: "gremlin"},
			wantErr: "gremlin_url",
		},
		{
			desc:    "missing repository",
			cfg:     Cfg{Backend: "filesystem"},
			wantErr: "repository is not set",
		},
		{
			desc:    "nonexistent repository",
			cfg:     Cfg{Repository: dir + "/nope", Backend: "filesystem"},
			wantErr: "nope",
		},
		{
			desc:    "negative cache",
			cfg:     Cfg{Repository: dir, Backend: "filesystem", TagCacheSize: -1},
			wantErr: "tag_cache_size",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestStorageLocation(t *testing.T) {
	cfg := Cfg{Repository: "/srv/repo", Backend: "gremlin", GremlinURL: "ws://localhost:8182/gremlin"}
	require.Equal(t, "ws://localhost:8182/gremlin", cfg.StorageLocation())

	cfg.Backend = "pebble"
	require.Equal(t, "/srv/repo", cfg.StorageLocation())
}
