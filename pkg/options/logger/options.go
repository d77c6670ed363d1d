// Package logger provides logger configuration options.
package logger

import (
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"
)

// Options holds the subset of option.LogOption exposed as flags and config.
type Options struct {
	Engine            string   `json:"engine" mapstructure:"engine"`
	Level             string   `json:"level" mapstructure:"level"`
	Format            string   `json:"format" mapstructure:"format"`
	OutputPaths       []string `json:"output-paths" mapstructure:"output-paths"`
	Development       bool     `json:"development" mapstructure:"development"`
	DisableCaller     bool     `json:"disable-caller" mapstructure:"disable-caller"`
	DisableStacktrace bool     `json:"disable-stacktrace" mapstructure:"disable-stacktrace"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	def := option.DefaultLogOption()
	return &Options{
		Engine:            def.Engine,
		Level:             def.Level,
		Format:            def.Format,
		OutputPaths:       def.OutputPaths,
		Development:       def.Development,
		DisableCaller:     def.DisableCaller,
		DisableStacktrace: def.DisableStacktrace,
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Engine, "log.engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, "log.level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, "log.development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")
}

// LogOption converts to the logger library's option type.
func (o *Options) LogOption() *option.LogOption {
	opt := option.DefaultLogOption()
	opt.Engine = o.Engine
	opt.Level = o.Level
	opt.Format = o.Format
	if len(o.OutputPaths) > 0 {
		opt.OutputPaths = o.OutputPaths
	}
	opt.Development = o.Development
	opt.DisableCaller = o.DisableCaller
	opt.DisableStacktrace = o.DisableStacktrace
	return opt
}

// Validate validates the logger options.
func (o *Options) Validate() error {
	return o.LogOption().Validate()
}

// Complete completes the logger options with defaults.
func (o *Options) Complete() error {
	return nil
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := logger.New(o.LogOption())
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}

// CreateLogger creates a logger without touching the global one.
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(o.LogOption())
}
