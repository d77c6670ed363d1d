// Package enrollment covers teaching workflows: assessments, attendance,
// instructor assignments and grading, including the bulk operations a
// class register needs.
package enrollment

import (
	"context"
	"fmt"

	"github.com/kart-io/campus-portal/internal/portal/account"
	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/infra/pool"
)

// Resource paths.
const (
	PathAssessments           = "/enrollment/assessments"
	PathAttendance            = "/enrollment/attendance"
	PathInstructorAssignments = "/enrollment/instructor-assignments"
	PathGrades                = "/enrollment/grades"

	// KeyInstructorAssignments is the list key of the assignments endpoint.
	KeyInstructorAssignments = "assignments"
)

// Attendance statuses.
const (
	Present = "present"
	Absent  = "absent"
	Late    = "late"
	Excused = "excused"
)

// Assessment is a graded piece of work.
type Assessment struct {
	ID       string  `json:"id"`
	CourseID string  `json:"courseId"`
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	MaxScore float64 `json:"maxScore"`
	Weight   float64 `json:"weight,omitempty"`
	DueDate  string  `json:"dueDate,omitempty"`
}

// AssessmentInput creates or updates an assessment.
type AssessmentInput struct {
	CourseID string  `json:"courseId" validate:"required"`
	Title    string  `json:"title" validate:"required,trimmed"`
	Type     string  `json:"type" validate:"required,oneof=quiz assignment midterm final project lab"`
	MaxScore float64 `json:"maxScore" validate:"required,gt=0"`
	Weight   float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	DueDate  string  `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceRecord is one student's attendance for one class meeting.
type AttendanceRecord struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks,omitempty"`
}

// AttendanceEntry marks one student.
type AttendanceEntry struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   string `json:"remarks,omitempty" validate:"max=500"`
}

// InstructorAssignment links a faculty member to a course offering.
type InstructorAssignment struct {
	ID        string `json:"id"`
	FacultyID string `json:"facultyId"`
	CourseID  string `json:"courseId"`
	BatchID   string `json:"batchId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty"`
}

// AssignmentInput creates an instructor assignment.
type AssignmentInput struct {
	FacultyID string `json:"facultyId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	BatchID   string `json:"batchId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=lead assistant"`
}

// Grade is a student's result on an assessment.
type Grade struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"studentId"`
	AssessmentID string  `json:"assessmentId"`
	Score        float64 `json:"score"`
	LetterGrade  string  `json:"letterGrade,omitempty"`
	Comments     string  `json:"comments,omitempty"`
}

// GradeEntry records one score.
type GradeEntry struct {
	StudentID    string  `json:"studentId" validate:"required"`
	AssessmentID string  `json:"assessmentId" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
	LetterGrade  string  `json:"letterGrade,omitempty" validate:"omitempty,lettergrade"`
	Comments     string  `json:"comments,omitempty"`
}

// Failure is one rejected entry of a bulk operation.
type Failure struct {
	Index int
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("entry %d: %v", f.Index, f.Err)
}

// BulkResult collects the outcome of a bulk operation. Created keeps the
// input order of the accepted entries.
type BulkResult[T any] struct {
	Created []T
	Failed  []Failure
}

// OK reports whether every entry was accepted.
func (r *BulkResult[T]) OK() bool {
	return len(r.Failed) == 0
}

// Module groups the enrollment resources.
type Module struct {
	Assessments *resource.Client[Assessment]
	Attendance  *resource.Client[AttendanceRecord]
	Assignments *resource.Client[InstructorAssignment]
	Grades      *resource.Client[Grade]

	students *resource.Client[account.Student]
	bulk     *pool.Pool
}

// New builds the module. concurrency bounds the requests bulk operations
// keep in flight; 0 uses the pool default.
func New(t *rest.Client, concurrency int) (*Module, error) {
	p, err := pool.NewPool("enrollment-bulk", pool.BulkPool, pool.BulkPoolConfig(concurrency))
	if err != nil {
		return nil, err
	}
	return &Module{
		Assessments: resource.New[Assessment](t, PathAssessments),
		Attendance:  resource.New[AttendanceRecord](t, PathAttendance),
		Assignments: resource.New[InstructorAssignment](t, PathInstructorAssignments,
			resource.WithResourceKey(KeyInstructorAssignments)),
		Grades:   resource.New[Grade](t, PathGrades),
		students: resource.New[account.Student](t, account.PathStudents),
		bulk:     p,
	}, nil
}

// Close releases the bulk worker pool.
func (m *Module) Close() {
	m.bulk.Release()
}

// CreateAssessment checks in and creates the assessment.
func (m *Module) CreateAssessment(ctx context.Context, in AssessmentInput) (Assessment, error) {
	if err := action.Validate(in); err != nil {
		return Assessment{}, err
	}
	return m.Assessments.Create(ctx, in)
}

// AssignInstructor checks in and creates the assignment.
func (m *Module) AssignInstructor(ctx context.Context, in AssignmentInput) (InstructorAssignment, error) {
	if err := action.Validate(in); err != nil {
		return InstructorAssignment{}, err
	}
	return m.Assignments.Create(ctx, in)
}

// MarkAttendance records every entry, one request each, with bounded
// concurrency. Invalid entries fail without a request.
func (m *Module) MarkAttendance(ctx context.Context, entries []AttendanceEntry) *BulkResult[AttendanceRecord] {
	return bulkCreate(ctx, m.bulk, m.Attendance, entries)
}

// SubmitGrades records every grade, one request each, with bounded
// concurrency. Invalid entries fail without a request.
func (m *Module) SubmitGrades(ctx context.Context, entries []GradeEntry) *BulkResult[Grade] {
	return bulkCreate(ctx, m.bulk, m.Grades, entries)
}

// Roster lists every student of a batch, walking all pages.
func (m *Module) Roster(ctx context.Context, batchID string) ([]account.Student, error) {
	return resource.Collect(ctx, m.students, rest.Params{"batchId": batchID}, 0)
}

// AttendanceFor lists a course's attendance on one date.
func (m *Module) AttendanceFor(ctx context.Context, courseID, date string) ([]AttendanceRecord, error) {
	return resource.Collect(ctx, m.Attendance, rest.Params{"courseId": courseID, "date": date}, 0)
}

func bulkCreate[T, In any](ctx context.Context, p *pool.Pool, c *resource.Client[T], entries []In) *BulkResult[T] {
	created := make([]T, len(entries))
	errs := p.Map(ctx, len(entries), func(ctx context.Context, i int) error {
		if err := action.Validate(entries[i]); err != nil {
			return err
		}
		item, err := c.Create(ctx, entries[i])
		if err != nil {
			return err
		}
		created[i] = item
		return nil
	})

	res := &BulkResult[T]{}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, Failure{Index: i, Err: err})
			continue
		}
		res.Created = append(res.Created, created[i])
	}
	return res
}
