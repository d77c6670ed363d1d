package portalctl

import (
	"fmt"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/campus-portal/pkg/infra/tracing"
	clientopts "github.com/kart-io/campus-portal/pkg/options/client"
	logopts "github.com/kart-io/campus-portal/pkg/options/logger"
	redisopts "github.com/kart-io/campus-portal/pkg/options/redis"
	sessionopts "github.com/kart-io/campus-portal/pkg/options/session"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Options is the complete portalctl configuration.
type Options struct {
	Client  *clientopts.Options  `json:"client" mapstructure:"client"`
	Session *sessionopts.Options `json:"session" mapstructure:"session"`
	Redis   *redisopts.Options   `json:"redis" mapstructure:"redis"`
	Log     *logopts.Options     `json:"log" mapstructure:"log"`
	Tracing *tracing.Options     `json:"tracing" mapstructure:"tracing"`
	Output  string               `json:"output" mapstructure:"output"`
}

// NewOptions returns the defaults. Logs go to stderr at WARN so they never
// mix with command output.
func NewOptions() *Options {
	log := logopts.NewOptions()
	log.Level = "WARN"
	log.Format = "console"
	log.OutputPaths = []string{"stderr"}

	return &Options{
		Client:  clientopts.NewOptions(),
		Session: sessionopts.NewOptions(),
		Redis:   redisopts.NewOptions(),
		Log:     log,
		Tracing: tracing.NewOptions(appName),
		Output:  OutputTable,
	}
}

// AddFlags adds every option group to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Client.AddFlags(fs)
	o.Session.AddFlags(fs)
	o.Redis.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Tracing.AddFlags(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format (table|json|yaml)")
}

// Complete completes every option group.
func (o *Options) Complete() error {
	for _, c := range []interface{ Complete() error }{o.Client, o.Session, o.Redis, o.Log, o.Tracing} {
		if err := c.Complete(); err != nil {
			return err
		}
	}
	if o.Output == "" {
		o.Output = OutputTable
	}
	return nil
}

// Validate reports every invalid option.
func (o *Options) Validate() error {
	errs := []error{
		o.Client.Validate(),
		o.Session.Validate(),
		o.Log.Validate(),
		o.Tracing.Validate(),
	}
	if o.Session.Store == sessionopts.StoreRedis {
		errs = append(errs, o.Redis.Validate())
	}
	switch o.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		errs = append(errs, fmt.Errorf("output: unknown format %q (table, json, yaml)", o.Output))
	}
	return utilerrors.NewAggregate(errs)
}

// Init sets up the global logger.
func (o *Options) Init() error {
	return o.Log.Init()
}
