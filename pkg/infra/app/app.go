// Package app provides application bootstrapping with Cobra, Viper, and Pflag.
//
// Configuration is layered, lowest first: flag defaults, the config file,
// .env files, environment variables, explicitly set flags.
//
// Usage:
//
//	a := app.NewApp(
//	    app.WithName("portalctl"),
//	    app.WithDescription("Campus portal command line"),
//	    app.WithOptions(opts),
//	    app.WithCommands(loginCmd, listCmd),
//	)
//	a.Run()
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// App is the main application structure.
type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string
	dotenv      []string
	options     CliOptions
	runFunc     RunFunc
	commands    []*cobra.Command
	cmd         *cobra.Command
	viper       *viper.Viper
	args        cobra.PositionalArgs
	silence     bool
	noVersion   bool
	noConfig    bool
}

// RunFunc is the application's run function.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// WithName sets the application name.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions sets the CLI options.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the run function of the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithCommands adds subcommands. They see the loaded options.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// WithEnvPrefix overrides the environment variable prefix (default: the
// upper-cased name).
func WithEnvPrefix(prefix string) Option {
	return func(a *App) {
		a.envPrefix = prefix
	}
}

// WithDotenv loads the given .env files before reading the environment.
// Missing files are skipped.
func WithDotenv(files ...string) Option {
	return func(a *App) {
		a.dotenv = append(a.dotenv, files...)
	}
}

// WithArgs sets the positional args validation.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithSilence disables usage and error printing.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoVersion disables version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// WithNoConfig disables config file loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name:  filepath.Base(os.Args[0]),
		viper: viper.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.envPrefix == "" {
		a.envPrefix = strings.ToUpper(strings.ReplaceAll(a.name, "-", "_"))
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:               a.name,
		Short:             a.shortDesc,
		Long:              a.description,
		Args:              a.args,
		PersistentPreRunE: a.prepare,
		// Always silence usage on errors - users can use --help to see usage
		SilenceUsage: true,
	}
	if a.runFunc != nil {
		cmd.RunE = func(*cobra.Command, []string) error { return a.runFunc() }
	}
	if a.silence {
		cmd.SilenceErrors = true
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.PersistentFlags().SortFlags = true

	if !a.noConfig {
		cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	}
	if !a.noVersion {
		version.AddFlags(cmd.PersistentFlags())
	}
	if a.options != nil {
		a.options.AddFlags(cmd.PersistentFlags())
	}

	cmd.AddCommand(a.commands...)
	a.cmd = cmd
}

// prepare runs before any command: version flag, config, completion,
// validation and initialization of the options.
func (a *App) prepare(cmd *cobra.Command, _ []string) error {
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}
	if err := a.loadDotenv(); err != nil {
		return err
	}
	if err := a.loadConfig(cmd); err != nil {
		return err
	}
	if a.options == nil {
		return nil
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}
	if init, ok := a.options.(InitializableOptions); ok {
		return init.Init()
	}
	return nil
}

func (a *App) loadDotenv() error {
	for _, file := range a.dotenv {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// loadConfig loads configuration from file, environment, and flags.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.viper

	if !a.noConfig {
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			v.SetConfigFile(configFile)
		} else {
			v.SetConfigName(a.name)
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
			v.AddConfigPath("./configs")
			if home, err := os.UserHomeDir(); err == nil {
				v.AddConfigPath(filepath.Join(home, "."+a.name))
			}
			v.AddConfigPath("/etc/" + a.name)
		}

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
		expandEnvVars(v)
	}

	v.SetEnvPrefix(a.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.options == nil {
		return nil
	}

	// Binding every flag makes its key known to viper, so environment
	// variables apply even when the config file does not mention the key.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	changed := make(map[string]string)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = f.Value.String()
		}
	})

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Slice and map flags do not round-trip through viper; re-apply what the
	// user typed so it keeps the highest precedence.
	for name, val := range changed {
		f := cmd.Flags().Lookup(name)
		// Viper already decodes map flags, and their String form does not parse back.
		if f == nil || f.Value.Type() == "stringToString" {
			continue
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(splitSlice(val)); err != nil {
				return fmt.Errorf("failed to re-apply flag %s: %w", name, err)
			}
			continue
		}
		if err := f.Value.Set(val); err != nil {
			return fmt.Errorf("failed to re-apply flag %s: %w", name, err)
		}
	}
	return nil
}

func splitSlice(val string) []string {
	val = strings.TrimSuffix(strings.TrimPrefix(val, "["), "]")
	if val == "" {
		return nil
	}
	return strings.Split(val, ",")
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR references in string config values.
// Unknown variables are left as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			name := strings.TrimPrefix(match, "$")
			name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")
			if envVal, ok := os.LookupEnv(name); ok {
				return envVal
			}
			return match
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		if !a.silence {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Execute runs the command tree with args and returns the error.
func (a *App) Execute(args ...string) error {
	a.cmd.SetArgs(args)
	return a.cmd.Execute()
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration store.
func (a *App) Viper() *viper.Viper {
	return a.viper
}
