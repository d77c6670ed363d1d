// Package portal assembles the campus portal modules on one transport.
package portal

import (
	"github.com/kart-io/campus-portal/internal/portal/academic"
	"github.com/kart-io/campus-portal/internal/portal/account"
	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/internal/portal/auth"
	"github.com/kart-io/campus-portal/internal/portal/enrollment"
	"github.com/kart-io/campus-portal/internal/portal/library"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/session"
)

// Portal is the full client: session lifecycle plus every domain module.
type Portal struct {
	Auth       *auth.Service
	Academic   *academic.Module
	Library    *library.Module
	Enrollment *enrollment.Module
	Account    *account.Module

	transport *rest.Client
}

// New builds every module on transport. store receives the token on
// login; transport should read it through session.Provider(store, ...).
// bulkConcurrency bounds enrollment bulk operations.
func New(transport *rest.Client, store session.Store, bulkConcurrency int) (*Portal, error) {
	enr, err := enrollment.New(transport, bulkConcurrency)
	if err != nil {
		return nil, err
	}
	return &Portal{
		Auth:       auth.New(transport, store),
		Academic:   academic.New(transport),
		Library:    library.New(transport),
		Enrollment: enr,
		Account:    account.New(transport),
		transport:  transport,
	}, nil
}

// Transport returns the shared HTTP adapter.
func (p *Portal) Transport() *rest.Client {
	return p.transport
}

// Close releases the enrollment worker pool.
func (p *Portal) Close() {
	p.Enrollment.Close()
}

// Validate checks a payload against its validate tags, returning a 422
// *rest.APIError on failure.
func Validate(v interface{}) error {
	return action.Validate(v)
}
