package config

import "github.com/spf13/pflag"

// RegisterFlags binds cfg's overridable fields onto fs, generalizing
// the teacher's cli/main.go pattern of declaring plain local variables
// and wiring rootCmd.PersistentFlags().StringVarP/BoolVar against
// them — here the destination is Config's own fields instead of
// function-local variables, so the same FlagSet can be attached to
// more than one cobra subcommand (cmd/korec's canon/check/watch all
// share one Config) without re-declaring every flag per command.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for lowered artifacts")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, `execution backend: "eval" or "native"`)
	fs.StringVar(&cfg.ManifestPath, "capability-manifest", cfg.ManifestPath, "path to a capability manifest YAML file")
	fs.CountVarP(&cfg.Verbosity, "verbose", "v", "increase logging verbosity (repeatable)")
}
