// Package academic covers the academic catalogue: departments, faculties,
// programs, courses, batches, sessions, syllabi and classrooms.
package academic

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// Resource paths.
const (
	PathDepartments = "/academic/departments"
	PathFaculties   = "/academic/faculties"
	PathPrograms    = "/academic/programs"
	PathCourses     = "/academic/courses"
	PathBatches     = "/academic/batches"
	PathSessions    = "/academic/sessions"
	PathSyllabi     = "/academic/syllabus"
	PathClassrooms  = "/academic/classrooms"

	// KeySyllabi is the list key of the syllabus endpoint.
	KeySyllabi = "syllabus"
)

// MaxSyllabusSize bounds syllabus uploads.
const MaxSyllabusSize = 10 << 20

// ErrSyllabusTooLarge is wrapped by Upload errors for files over MaxSyllabusSize.
var ErrSyllabusTooLarge = errors.New("syllabus file exceeds 10 MiB")

// Module groups the academic resources.
type Module struct {
	Departments *resource.Client[Department]
	Faculties   *resource.Client[Faculty]
	Programs    *Programs
	Courses     *Courses
	Batches     *resource.Client[Batch]
	Sessions    *resource.Client[Session]
	Syllabi     *Syllabi
	Classrooms  *resource.Client[Classroom]
}

// New builds the module on one transport.
func New(t *rest.Client) *Module {
	return &Module{
		Departments: resource.New[Department](t, PathDepartments),
		Faculties:   resource.New[Faculty](t, PathFaculties),
		Programs:    &Programs{resource.New[Program](t, PathPrograms)},
		Courses:     &Courses{resource.New[Course](t, PathCourses)},
		Batches:     resource.New[Batch](t, PathBatches),
		Sessions:    resource.New[Session](t, PathSessions),
		Syllabi:     &Syllabi{resource.New[Syllabus](t, PathSyllabi, resource.WithResourceKey(KeySyllabi))},
		Classrooms:  resource.New[Classroom](t, PathClassrooms),
	}
}

// CreateDepartment checks in and creates the department.
func (m *Module) CreateDepartment(ctx context.Context, in DepartmentInput) (Department, error) {
	return create(ctx, m.Departments, in)
}

// CreateFaculty checks in and creates the faculty member.
func (m *Module) CreateFaculty(ctx context.Context, in FacultyInput) (Faculty, error) {
	return create(ctx, m.Faculties, in)
}

// CreateBatch checks in and creates the batch.
func (m *Module) CreateBatch(ctx context.Context, in BatchInput) (Batch, error) {
	return create(ctx, m.Batches, in)
}

// CreateSession checks in and creates the session.
func (m *Module) CreateSession(ctx context.Context, in SessionInput) (Session, error) {
	return create(ctx, m.Sessions, in)
}

// CreateClassroom checks in and creates the classroom.
func (m *Module) CreateClassroom(ctx context.Context, in ClassroomInput) (Classroom, error) {
	return create(ctx, m.Classrooms, in)
}

// CurrentSession returns the session flagged current, if any.
func (m *Module) CurrentSession(ctx context.Context) (*Session, error) {
	list, err := m.Sessions.List(ctx, rest.Params{"current": true})
	if err != nil {
		return nil, err
	}
	for i := range list.Data {
		if list.Data[i].Current {
			return &list.Data[i], nil
		}
	}
	return nil, nil
}

// Programs is the program resource with department filtering.
type Programs struct {
	*resource.Client[Program]
}

// ByDepartment lists every program of a department.
func (p *Programs) ByDepartment(ctx context.Context, departmentID string) ([]Program, error) {
	return resource.Collect(ctx, p.Client, rest.Params{"departmentId": departmentID}, 0)
}

// CreateProgram checks in and creates the program.
func (p *Programs) CreateProgram(ctx context.Context, in ProgramInput) (Program, error) {
	return create(ctx, p.Client, in)
}

// Courses is the course resource with program filtering.
type Courses struct {
	*resource.Client[Course]
}

// ByProgram lists every course of a program, optionally limited to one
// semester (0 means all).
func (c *Courses) ByProgram(ctx context.Context, programID string, semester int) ([]Course, error) {
	params := rest.Params{"programId": programID}
	if semester > 0 {
		params["semester"] = semester
	}
	return resource.Collect(ctx, c.Client, params, 0)
}

// CreateCourse checks in and creates the course.
func (c *Courses) CreateCourse(ctx context.Context, in CourseInput) (Course, error) {
	return create(ctx, c.Client, in)
}

// Syllabi is the syllabus resource with file upload.
type Syllabi struct {
	*resource.Client[Syllabus]
}

// SyllabusUpload is a PDF outline for a course.
type SyllabusUpload struct {
	CourseID string    `json:"courseId" validate:"required"`
	Title    string    `json:"title" validate:"required,trimmed"`
	FileName string    `json:"fileName" validate:"required"`
	Version  int       `json:"version" validate:"omitempty,min=1"`
	File     io.Reader `json:"file" validate:"required"`
}

// Upload sends the outline as multipart/form-data. Only PDF files are
// accepted and the file must not exceed MaxSyllabusSize.
func (s *Syllabi) Upload(ctx context.Context, up SyllabusUpload) (Syllabus, error) {
	var zero Syllabus
	if err := action.Validate(up); err != nil {
		return zero, err
	}
	if !strings.EqualFold(filepath.Ext(up.FileName), ".pdf") {
		return zero, action.Reject("file", "file must be a PDF document")
	}

	fields := map[string]string{"courseId": up.CourseID, "title": up.Title}
	if up.Version > 0 {
		fields["version"] = strconv.Itoa(up.Version)
	}
	form := &rest.MultipartForm{
		Fields: fields,
		Files: []rest.File{{
			Field:       "file",
			Name:        filepath.Base(up.FileName),
			ContentType: "application/pdf",
			Reader:      &limitedReader{r: up.File, remaining: MaxSyllabusSize},
		}},
	}
	return s.Create(ctx, rest.Multipart(form))
}

// ForCourse lists the syllabi of a course.
func (s *Syllabi) ForCourse(ctx context.Context, courseID string) ([]Syllabus, error) {
	list, err := s.List(ctx, rest.Params{"courseId": courseID})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func create[T, In any](ctx context.Context, c *resource.Client[T], in In) (T, error) {
	if err := action.Validate(in); err != nil {
		var zero T
		return zero, err
	}
	return c.Create(ctx, in)
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrSyllabusTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrSyllabusTooLarge
	}
	return n, err
}
