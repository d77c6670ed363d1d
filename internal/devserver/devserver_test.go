package devserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-portal/internal/devserver/biz"
	"github.com/kart-io/campus-portal/internal/portal"
	"github.com/kart-io/campus-portal/internal/portal/academic"
	"github.com/kart-io/campus-portal/internal/portal/account"
	"github.com/kart-io/campus-portal/internal/portal/auth"
	"github.com/kart-io/campus-portal/internal/portal/enrollment"
	"github.com/kart-io/campus-portal/internal/portal/library"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/session"
)

const (
	testAdmin    = "admin@campus.local"
	testPassword = "Admin@12345"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	opts := NewOptions()
	opts.HTTP.Mode = gin.TestMode
	opts.Database.SQLite = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	opts.JWT.Key = "0123456789abcdef0123456789abcdef"
	opts.Admin.Email = testAdmin
	opts.Admin.Password = testPassword
	require.NoError(t, opts.Validate())

	srv, err := NewServer(context.Background(), opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close(context.Background())
	})
	return ts
}

func newPortal(t *testing.T, ts *httptest.Server) (*portal.Portal, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	transport, err := rest.New(ts.URL+"/api/v1", rest.WithTokenProvider(session.Provider(store, nil)))
	require.NoError(t, err)
	p, err := portal.New(transport, store, 4)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, store
}

func signedIn(t *testing.T) *portal.Portal {
	t.Helper()
	p, _ := newPortal(t, newTestServer(t))
	_, err := p.Auth.Login(context.Background(), auth.Credentials{Email: testAdmin, Password: testPassword})
	require.NoError(t, err)
	return p
}

func totpNow(t *testing.T, secret string) string {
	t.Helper()
	code, err := biz.TOTP(secret, time.Now())
	require.NoError(t, err)
	return code
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthLifecycle(t *testing.T) {
	ts := newTestServer(t)
	p, store := newPortal(t, ts)
	ctx := context.Background()

	_, err := p.Academic.Departments.List(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, rest.StatusCode(err))

	_, err = p.Auth.Login(ctx, auth.Credentials{Email: testAdmin, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rest.StatusCode(err))

	res, err := p.Auth.Login(ctx, auth.Credentials{Email: testAdmin, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User.Role)
	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Token, token)

	me, err := p.Auth.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAdmin, me.Email)
	assert.Equal(t, "Portal Admin", me.FullName())

	require.NoError(t, p.Auth.Logout(ctx))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// The revoked token is refused even if a client kept it.
	require.NoError(t, store.Save(ctx, res.Token))
	_, err = p.Auth.Verify(ctx)
	assert.Equal(t, http.StatusUnauthorized, rest.StatusCode(err))
}

func TestTwoFactorLogin(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()

	setup, err := p.Auth.EnableTwoFactor(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)

	_, err = p.Auth.ConfirmTwoFactor(ctx, "000000")
	assert.Equal(t, http.StatusUnauthorized, rest.StatusCode(err))

	code := totpNow(t, setup.Secret)
	_, err = p.Auth.ConfirmTwoFactor(ctx, code)
	require.NoError(t, err)
	require.NoError(t, p.Auth.Logout(ctx))

	_, err = p.Auth.Login(ctx, auth.Credentials{Email: testAdmin, Password: testPassword})
	assert.ErrorIs(t, err, auth.ErrTwoFactorRequired)

	_, err = p.Auth.Login(ctx, auth.Credentials{Email: testAdmin, Password: testPassword, OTP: totpNow(t, setup.Secret)})
	require.NoError(t, err)
}

func TestResourceLifecycle(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()
	courses := p.Academic.Courses

	for i, code := range []string{"CS101", "CS102", "MATH201"} {
		_, err := courses.CreateCourse(ctx, academic.CourseInput{
			Code: code, Title: "Course " + code, Credits: 3 + i, ProgramID: "p1", Semester: i%2 + 1,
		})
		require.NoError(t, err)
	}

	page, err := courses.List(ctx, rest.Params{"limit": 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	require.NotNil(t, page.Pagination)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)

	all, err := courses.ByProgram(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "collect walks every page")

	first, err := courses.ByProgram(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, first, 2)
	c := first[0]
	assert.Equal(t, "CS101", c.Code)
	assert.Equal(t, 3, c.Credits)

	updated, err := courses.Update(ctx, c.ID, map[string]interface{}{"title": "Intro to CS"})
	require.NoError(t, err)
	assert.Equal(t, "Intro to CS", updated.Title)
	assert.Equal(t, "CS101", updated.Code)

	msg, err := courses.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Course deleted successfully", msg.Message)

	_, err = courses.Get(ctx, c.ID)
	assert.Equal(t, http.StatusNotFound, rest.StatusCode(err))

	deleted, err := courses.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, c.ID, deleted[0].ID)

	restored, err := courses.Restore(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro to CS", restored.Title)

	_, err = courses.Restore(ctx, c.ID)
	assert.Equal(t, http.StatusConflict, rest.StatusCode(err))

	msg, err = courses.DeletePermanently(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Permanently deleted successfully", msg.Message)

	deleted, err = courses.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestListDialects(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()

	for _, barcode := range []string{"B-1", "B-2"} {
		_, err := p.Library.Copies.Create(ctx, map[string]string{"bookId": "b1", "barcode": barcode, "status": library.CopyAvailable})
		require.NoError(t, err)
	}
	_, err := p.Library.Copies.Create(ctx, map[string]string{"bookId": "b1", "barcode": "B-3", "status": "lost"})
	require.NoError(t, err)

	copies, err := p.Library.AvailableCopies(ctx, "b1")
	require.NoError(t, err, "keyed envelope under copies")
	assert.Len(t, copies, 2)

	_, err = p.Library.Reserve(ctx, library.ReserveRequest{BookID: "b1", UserID: "u1"})
	require.NoError(t, err)
	holds, err := p.Library.Reservations.List(ctx, rest.Params{"page": 1, "limit": 1})
	require.NoError(t, err, "flat envelope")
	assert.Len(t, holds.Data, 1)
	assert.Nil(t, holds.Pagination)

	entries := []enrollment.AttendanceEntry{
		{StudentID: "s1", CourseID: "c1", Date: "2026-03-02", Status: "present"},
		{StudentID: "s2", CourseID: "c1", Date: "2026-03-02", Status: "absent"},
		{StudentID: "s3", CourseID: "c1", Date: "2026-03-02", Status: "asleep"},
	}
	res := p.Enrollment.MarkAttendance(ctx, entries)
	assert.Len(t, res.Created, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Index)

	records, err := p.Enrollment.AttendanceFor(ctx, "c1", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSyllabusUpload(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()

	s, err := p.Academic.Syllabi.Upload(ctx, academic.SyllabusUpload{
		CourseID: "01HZX0000000000000000000C1",
		Title:    "Outline",
		FileName: "outline.pdf",
		Version:  2,
		File:     bytes.NewReader([]byte("%PDF-1.4 test")),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Version)
	assert.Equal(t, "01HZX0000000000000000000C1", s.CourseID)
	assert.True(t, strings.HasSuffix(s.FileURL, "/outline.pdf"))

	list, err := p.Academic.Syllabi.ForCourse(ctx, s.CourseID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
}

func TestLibraryWorkflows(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()

	loan, err := p.Library.Borrow(ctx, library.BorrowRequest{CopyID: "cp1", UserID: "u1"})
	require.NoError(t, err)

	renewed, err := p.Library.Renew(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.DueDate.Add(library.DefaultLoanPeriod), renewed.DueDate)

	returned, err := p.Library.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	_, err = p.Library.Return(ctx, loan.ID)
	assert.Equal(t, http.StatusConflict, rest.StatusCode(err))

	_, err = p.Library.Borrowings.Create(ctx, map[string]interface{}{
		"copyId": "cp2", "userId": "u2", "fine": 2.5,
		"dueDate": time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	overdue, err := p.Library.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "cp2", overdue[0].CopyID)
	fines, err := p.Library.OutstandingFines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, fines)

	hold, err := p.Library.Reserve(ctx, library.ReserveRequest{BookID: "b1", UserID: "u1"})
	require.NoError(t, err)
	msg, err := p.Library.CancelReservation(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reservation cancelled", msg.Message)
}

func TestTickets(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()
	tickets := p.Account.Tickets

	tk, err := tickets.Open(ctx, account.TicketInput{Subject: "Wifi", Description: "No signal in B2"})
	require.NoError(t, err)

	tk, err = tickets.Reply(ctx, tk.ID, "Router restarted")
	require.NoError(t, err)
	require.Len(t, tk.Replies, 1)
	assert.Equal(t, "Router restarted", tk.Replies[0].Message)
	assert.NotEmpty(t, tk.Replies[0].AuthorID)

	mine, err := tickets.Mine(ctx, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	msg, err := tickets.Close(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ticket closed", msg.Message)

	_, err = tickets.Reply(ctx, tk.ID, "again")
	assert.Equal(t, http.StatusConflict, rest.StatusCode(err))
}

func TestProfileAndPassword(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()

	prof, err := p.Account.UpdateProfile(ctx, account.ProfileUpdate{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", prof.FirstName)

	prof, err = p.Account.UploadAvatar(ctx, "me.png", bytes.NewReader([]byte("\x89PNG")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prof.AvatarURL, "/avatars/"))

	_, err = p.Auth.ChangePassword(ctx, auth.PasswordChange{CurrentPassword: "Wrong@12345", NewPassword: "Next@12345"})
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Field("currentPassword"))

	_, err = p.Auth.ChangePassword(ctx, auth.PasswordChange{CurrentPassword: testPassword, NewPassword: "Next@12345"})
	require.NoError(t, err)
	require.NoError(t, p.Auth.Logout(ctx))
	_, err = p.Auth.Login(ctx, auth.Credentials{Email: testAdmin, Password: "Next@12345"})
	require.NoError(t, err)
}

func TestRequestErrors(t *testing.T) {
	p := signedIn(t)
	ctx := context.Background()
	tr := p.Transport()

	course, err := p.Academic.Courses.Create(ctx, map[string]interface{}{"code": "CS101"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		params     rest.Params
		body       rest.Body
		wantStatus int
	}{
		{"空对象", http.MethodPost, academic.PathCourses, nil, rest.JSON(map[string]string{}), http.StatusUnprocessableEntity},
		{"非对象", http.MethodPost, academic.PathCourses, nil, rest.JSON([]int{1}), http.StatusBadRequest},
		{"页码非法", http.MethodGet, academic.PathCourses, rest.Params{"page": "zero"}, nil, http.StatusUnprocessableEntity},
		{"未知操作", http.MethodPost, academic.PathCourses + "/" + course.ID + "/explode", nil, nil, http.StatusNotFound},
		{"不存在", http.MethodPatch, academic.PathCourses + "/missing", nil, rest.JSON(map[string]string{"code": "x"}), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Do(ctx, tt.method, tt.path, tt.params, tt.body)
			assert.Equal(t, tt.wantStatus, rest.StatusCode(err))
		})
	}
}
