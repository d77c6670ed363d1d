package account

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/internal/portal/portaltest"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

func newModule(t *testing.T) (*Module, *portaltest.Backend) {
	t.Helper()
	b := portaltest.NewBackend(t)
	return New(b.Client(t)), b
}

func TestModule_Profile(t *testing.T) {
	m, b := newModule(t)
	ctx := context.Background()
	b.Handle(http.MethodGet, PathProfile, http.StatusOK, `{"data":{"id":"u1","email":"a@campus.edu","role":"admin"}}`)
	b.Handle(http.MethodPatch, PathProfile, http.StatusOK, `{"data":{"id":"u1","phone":"+14155550100"}}`)

	p, err := m.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)

	p, err = m.UpdateProfile(ctx, ProfileUpdate{Phone: "+14155550100"})
	require.NoError(t, err)
	assert.Equal(t, "+14155550100", p.Phone)
	assert.JSONEq(t, `{"phone":"+14155550100"}`, b.Last().Body)

	_, err = m.UpdateProfile(ctx, ProfileUpdate{Phone: "555-0100"})
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.NotEmpty(t, apiErr.Field("phone"))
}

func TestModule_UploadAvatar(t *testing.T) {
	m, b := newModule(t)
	b.Handle(http.MethodPost, PathProfile+"/avatar", http.StatusOK, `{"data":{"id":"u1","avatarUrl":"/avatars/u1.png"}}`)

	p, err := m.UploadAvatar(context.Background(), "/tmp/Me.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/avatars/u1.png", p.AvatarURL)
	assert.Contains(t, b.Last().Body, `filename="Me.PNG"`)
	assert.Contains(t, b.Last().Body, "Content-Type: image/png")

	_, err = m.UploadAvatar(context.Background(), "me.gif", strings.NewReader("gif"))
	assert.Equal(t, http.StatusUnprocessableEntity, rest.StatusCode(err))
}

func TestModule_Students(t *testing.T) {
	m, b := newModule(t)
	assert.Equal(t, "students", m.Students.Key())
	b.Handle(http.MethodGet, PathStudents, http.StatusOK,
		`{"success":true,"data":{"students":[{"id":"s1","firstName":"Grace","lastName":"Hopper"}],"pagination":{"page":1,"limit":10,"total":1,"pages":1}}}`)

	list, err := m.Students.List(context.Background(), rest.Params{"limit": 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Grace Hopper", list.Data[0].FullName())
	require.NotNil(t, list.Pagination)
	assert.EqualValues(t, 1, list.Pagination.Total)

	_, err = m.AddStudent(context.Background(), StudentInput{StudentNumber: "S-1", FirstName: "G", LastName: "H", Email: "g@campus.edu", ProgramID: "p1"})
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.NotEmpty(t, apiErr.Field("studentNumber"))
}

func TestTickets(t *testing.T) {
	m, b := newModule(t)
	ctx := context.Background()
	b.Handle(http.MethodPost, PathTickets, http.StatusCreated, `{"data":{"id":"t1","subject":"Wifi","status":"open"}}`)
	b.Handle(http.MethodPost, PathTickets+"/t1/replies", http.StatusOK,
		`{"data":{"id":"t1","status":"pending","replies":[{"message":"Still broken"}]}}`)
	b.Handle(http.MethodPost, PathTickets+"/t1/close", http.StatusOK, `{"success":true,"message":"Ticket t1 closed"}`)
	b.Handle(http.MethodGet, PathTickets, http.StatusOK, `[{"id":"t1","status":"open"}]`)

	tk, err := m.Tickets.Open(ctx, TicketInput{Subject: "Wifi", Description: "No signal in library", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, TicketOpen, tk.Status)

	_, err = m.Tickets.Open(ctx, TicketInput{Subject: "Wifi", Description: "x", Priority: "critical"})
	assert.Equal(t, http.StatusUnprocessableEntity, rest.StatusCode(err))

	tk, err = m.Tickets.Reply(ctx, "t1", "  Still broken ")
	require.NoError(t, err)
	require.Len(t, tk.Replies, 1)
	assert.JSONEq(t, `{"message":"Still broken"}`, b.Last().Body)

	_, err = m.Tickets.Reply(ctx, "t1", "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, rest.StatusCode(err))

	msg, err := m.Tickets.Close(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Ticket t1 closed", msg.Message)

	mine, err := m.Tickets.Mine(ctx, TicketOpen)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Contains(t, b.Last().Query, "mine=true")
	assert.Contains(t, b.Last().Query, "status=open")
}
