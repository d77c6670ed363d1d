package portal

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/internal/portal/academic"
	"github.com/kart-io/campus-portal/internal/portal/auth"
	"github.com/kart-io/campus-portal/internal/portal/portaltest"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/session"
)

func TestPortal_LoginThenAuthenticatedCall(t *testing.T) {
	b := portaltest.NewBackend(t)
	b.Handle(http.MethodPost, auth.PathLogin, http.StatusOK, `{"data":{"token":"tok-42"}}`)
	b.Handle(http.MethodGet, academic.PathDepartments, http.StatusOK, `{"data":[{"id":"d1","name":"Physics"}]}`)

	store := session.NewMemoryStore()
	p, err := New(b.Client(t, rest.WithTokenProvider(session.Provider(store, nil))), store, 2)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	_, err = p.Auth.Login(ctx, auth.Credentials{Email: "admin@campus.edu", Password: "secret"})
	require.NoError(t, err)
	assert.Empty(t, b.Last().Auth, "login itself is sent without a token")

	list, err := p.Academic.Departments.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Bearer tok-42", b.Last().Auth)
	assert.Same(t, p.Transport(), p.Academic.Departments.Transport())
}

func TestValidate(t *testing.T) {
	err := Validate(academic.DepartmentInput{Name: " Physics", Code: "PHY"})
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Field("name"))

	assert.NoError(t, Validate(academic.DepartmentInput{Name: "Physics", Code: "PHY"}))
}
