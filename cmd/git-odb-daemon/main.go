package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vdye/git-odb-refs/internal/config"
	"github.com/vdye/git-odb-refs/internal/db"
	"github.com/vdye/git-odb-refs/internal/log"
	"github.com/vdye/git-odb-refs/internal/odb"
)

// globalFlags override values loaded from the config file and environment.
type globalFlags struct {
	configPath string
	backend    string
	gremlinURL string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "git-odb-daemon",
		Short:         "Serve git objects and classified references over IPC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend (filesystem, pebble, gremlin)")
	root.PersistentFlags().StringVar(&flags.gremlinURL, "gremlin-url", "", "gremlin server for the gremlin backend")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newShowRefCmd(flags))
	root.AddCommand(newCatObjectCmd(flags))

	return root
}

// loadConfig reads the config and applies flag overrides. repository, when
// set, overrides the configured repository.
func loadConfig(flags *globalFlags, repository string) (config.Cfg, error) {
	cfg, err := config.LoadFile(flags.configPath)
	if err != nil {
		return config.Cfg{}, err
	}

	if repository != "" {
		cfg.Repository = repository
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.gremlinURL != "" {
		cfg.GremlinURL = flags.gremlinURL
	}

	if err := cfg.Validate(); err != nil {
		return config.Cfg{}, err
	}

	log.Configure(cfg.Logging.Format, cfg.Logging.Level)
	return cfg, nil
}

func openDatabase(cfg config.Cfg) (db.Database, error) {
	return db.Open(cfg.Backend, cfg.StorageLocation(), odb.WithTagCacheSize(cfg.TagCacheSize))
}

func repositoryArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
