package devserver

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/campus-portal/internal/devserver/handler"
	"github.com/kart-io/campus-portal/pkg/infra/tracing"
	dbopts "github.com/kart-io/campus-portal/pkg/options/database"
	jwtopts "github.com/kart-io/campus-portal/pkg/options/jwt"
	logopts "github.com/kart-io/campus-portal/pkg/options/logger"
	mysqlopts "github.com/kart-io/campus-portal/pkg/options/mysql"
	pgopts "github.com/kart-io/campus-portal/pkg/options/postgres"
	httpopts "github.com/kart-io/campus-portal/pkg/options/server/http"
)

// AdminOptions configures the account seeded on startup.
type AdminOptions struct {
	Email    string `json:"email" mapstructure:"email"`
	Password string `json:"-" mapstructure:"password"`
}

// Options is the dev backend configuration.
type Options struct {
	HTTP     *httpopts.Options  `json:"http" mapstructure:"http"`
	Database *dbopts.Options    `json:"database" mapstructure:"database"`
	MySQL    *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`
	Postgres *pgopts.Options    `json:"postgres" mapstructure:"postgres"`
	JWT      *jwtopts.Options   `json:"jwt" mapstructure:"jwt"`
	Log      *logopts.Options   `json:"log" mapstructure:"log"`
	Tracing  *tracing.Options   `json:"tracing" mapstructure:"tracing"`
	Admin    *AdminOptions      `json:"admin" mapstructure:"admin"`
	// Dialects overrides list envelopes, path=flat|nested|keyed[:key].
	Dialects map[string]string `json:"dialects" mapstructure:"dialects"`
}

// NewOptions returns the defaults: in-memory sqlite on :8080.
func NewOptions() *Options {
	return &Options{
		HTTP:     httpopts.NewOptions(),
		Database: dbopts.NewOptions(),
		MySQL:    mysqlopts.NewOptions(),
		Postgres: pgopts.NewOptions(),
		JWT:      jwtopts.NewOptions(),
		Log:      logopts.NewOptions(),
		Tracing:  tracing.NewOptions(Name),
		Admin: &AdminOptions{
			Email:    "admin@campus.local",
			Password: "Admin@12345",
		},
		Dialects: map[string]string{},
	}
}

// AddFlags implements app.CliOptions.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Database.AddFlags(fs)
	o.MySQL.AddFlags(fs)
	o.Postgres.AddFlags(fs)
	o.JWT.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Tracing.AddFlags(fs)
	fs.StringVar(&o.Admin.Email, "admin.email", o.Admin.Email, "Email of the seeded admin account")
	fs.StringVar(&o.Admin.Password, "admin.password", o.Admin.Password, "Password of the seeded admin account (or ADMIN_PASSWORD)")
	fs.StringToStringVar(&o.Dialects, "dialects", o.Dialects, "List envelope overrides, path=flat|nested|keyed[:key]")
}

// Complete implements app.CliOptions. Only the selected driver's options
// are completed.
func (o *Options) Complete() error {
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		o.Admin.Password = v
	}
	steps := []func() error{o.HTTP.Complete, o.Database.Complete, o.JWT.Complete, o.Log.Complete, o.Tracing.Complete}
	switch o.Database.Driver {
	case dbopts.DriverMySQL:
		steps = append(steps, o.MySQL.Complete)
	case dbopts.DriverPostgres:
		steps = append(steps, o.Postgres.Complete)
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Validate implements app.CliOptions and reports every problem at once.
func (o *Options) Validate() error {
	errs := []error{
		o.HTTP.Validate(),
		o.Database.Validate(),
		o.JWT.Validate(),
		o.Log.Validate(),
		o.Tracing.Validate(),
	}
	switch o.Database.Driver {
	case dbopts.DriverMySQL:
		errs = append(errs, o.MySQL.Validate())
	case dbopts.DriverPostgres:
		errs = append(errs, o.Postgres.Validate())
	}
	if o.Admin.Email == "" || o.Admin.Password == "" {
		errs = append(errs, fmt.Errorf("admin: email and password are required"))
	}
	if _, err := handler.ParseDialects(o.Dialects); err != nil {
		errs = append(errs, err)
	}
	return utilerrors.NewAggregate(errs)
}

// Init sets up the global logger.
func (o *Options) Init() error {
	return o.Log.Init()
}
