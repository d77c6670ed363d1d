package app

import "github.com/spf13/pflag"

// CliOptions is the interface for CLI options.
// Any options struct implementing this interface can be used with App.
type CliOptions interface {
	// AddFlags adds flags to the flagset.
	AddFlags(fs *pflag.FlagSet)
	// Complete completes the options with defaults.
	Complete() error
	// Validate validates the options.
	Validate() error
}

// InitializableOptions is an optional interface for options that set up
// process-wide state (such as the global logger) once they are valid.
type InitializableOptions interface {
	Init() error
}
