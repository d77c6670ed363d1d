package academic

import (
	"bytes"
	"context"
	"errors"
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

func TestModule_ResourceKeys(t *testing.T) {
	m, _ := newModule(t)
	tests := []struct {
		name string
		path string
		key  string
		want string
	}{
		{"departments", m.Departments.Path(), m.Departments.Key(), "departments"},
		{"faculties", m.Faculties.Path(), m.Faculties.Key(), "faculties"},
		{"syllabus", m.Syllabi.Path(), m.Syllabi.Key(), "syllabus"},
		{"classrooms", m.Classrooms.Path(), m.Classrooms.Key(), "classrooms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.path, "/academic/"))
			assert.Equal(t, tt.want, tt.key)
		})
	}
}

func TestPrograms_ByDepartment(t *testing.T) {
	m, b := newModule(t)
	b.Handle(http.MethodGet, PathPrograms, http.StatusOK,
		`{"data":{"programs":[{"id":"p1","name":"Computer Science","departmentId":"d1"}]}}`)

	programs, err := m.Programs.ByDepartment(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "Computer Science", programs[0].Name)
	assert.Contains(t, b.Last().Query, "departmentId=d1")
	assert.Contains(t, b.Last().Query, "page=1")
}

func TestCourses_ByProgram(t *testing.T) {
	m, b := newModule(t)
	b.Handle(http.MethodGet, PathCourses, http.StatusOK,
		`{"data":{"data":[{"id":"c1","code":"CS101","credits":4}],"pagination":{"page":1,"limit":50,"total":1,"pages":1}}}`)

	courses, err := m.Courses.ByProgram(context.Background(), "p1", 2)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, 4, courses[0].Credits)
	assert.Contains(t, b.Last().Query, "semester=2")
	assert.Len(t, b.CallsTo(http.MethodGet, PathCourses), 1)
}

func TestModule_CreateValidates(t *testing.T) {
	m, b := newModule(t)
	b.Handle(http.MethodPost, PathCourses, http.StatusCreated, `{"data":{"id":"c9","code":"CS101","title":"Intro"}}`)
	ctx := context.Background()

	_, err := m.Courses.CreateCourse(ctx, CourseInput{Code: "intro", Title: "Intro", Credits: 0, ProgramID: "p1"})
	apiErr, ok := rest.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Field("code"))
	assert.NotEmpty(t, apiErr.Field("credits"))
	assert.Empty(t, b.Calls())

	course, err := m.Courses.CreateCourse(ctx, CourseInput{Code: "CS101", Title: "Intro", Credits: 3, ProgramID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "c9", course.ID)

	_, err = m.CreateBatch(ctx, BatchInput{Name: "2024", ProgramID: "p1", StartYear: 2024, EndYear: 2020})
	assert.Equal(t, http.StatusUnprocessableEntity, rest.StatusCode(err))

	_, err = m.CreateSession(ctx, SessionInput{Name: "Fall", AcademicYear: "2024/2026", StartDate: "2024-09-01", EndDate: "2025-01-31"})
	apiErr, ok = rest.AsAPIError(err)
	require.True(t, ok)
	assert.NotEmpty(t, apiErr.Field("academicYear"))
}

func TestModule_CurrentSession(t *testing.T) {
	m, b := newModule(t)
	b.Handle(http.MethodGet, PathSessions, http.StatusOK,
		`[{"id":"s1","current":false},{"id":"s2","current":true}]`)

	s, err := m.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "s2", s.ID)

	b.Handle(http.MethodGet, PathSessions, http.StatusOK, `{"data":[]}`)
	s, err = m.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSyllabi_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("上传 PDF", func(t *testing.T) {
		m, b := newModule(t)
		b.Handle(http.MethodPost, PathSyllabi, http.StatusCreated,
			`{"success":true,"data":{"id":"sy1","courseId":"c1","title":"Outline","fileUrl":"/files/sy1.pdf"}}`)

		got, err := m.Syllabi.Upload(ctx, SyllabusUpload{
			CourseID: "c1",
			Title:    "Outline",
			FileName: "docs/outline.pdf",
			Version:  2,
			File:     strings.NewReader("%PDF-1.7"),
		})
		require.NoError(t, err)
		assert.Equal(t, "/files/sy1.pdf", got.FileURL)

		last := b.Last()
		assert.True(t, strings.HasPrefix(last.ContentType, "multipart/form-data; boundary="))
		assert.Contains(t, last.Body, `name="courseId"`)
		assert.Contains(t, last.Body, `name="version"`)
		assert.Contains(t, last.Body, `filename="outline.pdf"`)
		assert.Contains(t, last.Body, "%PDF-1.7")
	})

	t.Run("拒绝非 PDF", func(t *testing.T) {
		m, b := newModule(t)
		_, err := m.Syllabi.Upload(ctx, SyllabusUpload{CourseID: "c1", Title: "Outline", FileName: "outline.docx", File: strings.NewReader("x")})
		apiErr, ok := rest.AsAPIError(err)
		require.True(t, ok)
		assert.NotEmpty(t, apiErr.Field("file"))
		assert.Empty(t, b.Calls())
	})

	t.Run("文件过大", func(t *testing.T) {
		m, b := newModule(t)
		big := bytes.NewReader(make([]byte, MaxSyllabusSize+1))
		_, err := m.Syllabi.Upload(ctx, SyllabusUpload{CourseID: "c1", Title: "Outline", FileName: "outline.pdf", File: big})
		assert.True(t, errors.Is(err, ErrSyllabusTooLarge))
		assert.Empty(t, b.Calls())
	})
}

func TestLimitedReader_ExactSize(t *testing.T) {
	r := &limitedReader{r: bytes.NewReader(make([]byte, 16)), remaining: 16}
	buf := make([]byte, 64)
	total := 0
	for {
		n, err := r.Read(buf)
		total += n
		if err != nil {
			assert.NotErrorIs(t, err, ErrSyllabusTooLarge)
			break
		}
	}
	assert.Equal(t, 16, total)
}
