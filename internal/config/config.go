package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"

	"github.com/vdye/git-odb-refs/internal/log"
	"github.com/vdye/git-odb-refs/internal/odb"
	"github.com/vdye/git-odb-refs/internal/storage"
)

// EnvPrefix is the prefix of environment variables overriding the file,
// e.g. GIT_ODB_BACKEND.
const EnvPrefix = "git_odb"

// SocketName is the name of the IPC socket inside the repository.
const SocketName = "odb-over-ipc"

// Cfg is a container for all config derived from the config file.
type Cfg struct {
	Repository           string     `toml:"repository" envconfig:"repository"`
	Backend              string     `toml:"backend" envconfig:"backend"`
	GremlinURL           string     `toml:"gremlin_url" split_words:"true"`
	PrometheusListenAddr string     `toml:"prometheus_listen_addr" split_words:"true"`
	TagCacheSize         int        `toml:"tag_cache_size" split_words:"true"`
	Logging              log.Config `toml:"logging" envconfig:"logging"`
}

// Load initializes the config from file and the environment.
// Environment variables take precedence over the file.
func Load(file io.Reader) (Cfg, error) {
	var cfg Cfg

	if file != nil {
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return Cfg{}, errors.Wrap(err, "load toml")
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Cfg{}, errors.Wrap(err, "envconfig")
	}

	cfg.setDefaults()
	return cfg, nil
}

// LoadFile is Load on a path. An empty path loads from the environment only.
func LoadFile(path string) (Cfg, error) {
	if path == "" {
		return Load(nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return Cfg{}, errors.Wrap(err, "open config")
	}
	defer f.Close()

	return Load(f)
}

func (cfg *Cfg) setDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = storage.BackendFilesystem
	}
	if cfg.TagCacheSize == 0 {
		cfg.TagCacheSize = odb.DefaultTagCacheSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Repository != "" {
		cfg.Repository = filepath.Clean(cfg.Repository)
	}
}

// Validate checks the config for sanity.
func (cfg *Cfg) Validate() error {
	for _, run := range []func() error{
		cfg.validateBackend,
		cfg.validateRepository,
		cfg.validateTagCache,
	} {
		if err := run(); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Cfg) validateBackend() error {
	for _, b := range storage.Backends {
		if cfg.Backend == b {
			if b == storage.BackendGremlin && cfg.GremlinURL == "" {
				return errors.New("gremlin backend requires gremlin_url")
			}
			return nil
		}
	}
	return errors.Newf("unknown backend %q, expected one of %v", cfg.Backend, storage.Backends)
}

func (cfg *Cfg) validateRepository() error {
	if cfg.Repository == "" {
		return errors.New("repository is not set")
	}

	fi, err := os.Stat(cfg.Repository)
	if err != nil {
		return errors.Wrapf(err, "repository %s", cfg.Repository)
	}
	if !fi.IsDir() {
		return errors.Newf("repository %s is not a directory", cfg.Repository)
	}
	return nil
}

func (cfg *Cfg) validateTagCache() error {
	if cfg.TagCacheSize < 0 {
		return errors.Newf("tag_cache_size must not be negative, got %d", cfg.TagCacheSize)
	}
	return nil
}

// StorageLocation is what the selected backend opens: the gremlin server for
// the gremlin backend, the repository otherwise.
func (cfg *Cfg) StorageLocation() string {
	if cfg.Backend == storage.BackendGremlin {
		return cfg.GremlinURL
	}
	return cfg.Repository
}

// SocketPath is where the daemon listens.
func (cfg *Cfg) SocketPath() string {
	return filepath.Join(cfg.Repository, SocketName)
}
