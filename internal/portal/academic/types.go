package academic

import "time"

// Department is an academic department.
type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	HeadID      string    `json:"headId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// DepartmentInput creates or updates a department.
type DepartmentInput struct {
	Name        string `json:"name" validate:"required,trimmed,max=120"`
	Code        string `json:"code" validate:"required,alphanum,max=10"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	HeadID      string `json:"headId,omitempty"`
}

// Faculty is a teaching staff member.
type Faculty struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
	Designation  string `json:"designation,omitempty"`
}

// FacultyInput creates or updates a faculty member.
type FacultyInput struct {
	FirstName    string `json:"firstName" validate:"required,trimmed"`
	LastName     string `json:"lastName" validate:"required,trimmed"`
	Email        string `json:"email" validate:"required,email"`
	DepartmentID string `json:"departmentId" validate:"required"`
	Designation  string `json:"designation,omitempty"`
}

// Program is a degree programme offered by a department.
type Program struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	Degree        string `json:"degree,omitempty"`
	DepartmentID  string `json:"departmentId"`
	DurationYears int    `json:"durationYears,omitempty"`
}

// ProgramInput creates or updates a program.
type ProgramInput struct {
	Name          string `json:"name" validate:"required,trimmed"`
	Code          string `json:"code" validate:"required,alphanum"`
	Degree        string `json:"degree,omitempty" validate:"omitempty,oneof=certificate diploma bachelor master doctorate"`
	DepartmentID  string `json:"departmentId" validate:"required"`
	DurationYears int    `json:"durationYears,omitempty" validate:"omitempty,min=1,max=8"`
}

// Course is a unit of study within a program.
type Course struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
	Credits   int    `json:"credits"`
	ProgramID string `json:"programId"`
	Semester  int    `json:"semester,omitempty"`
}

// CourseInput creates or updates a course.
type CourseInput struct {
	Code      string `json:"code" validate:"required,coursecode"`
	Title     string `json:"title" validate:"required,trimmed"`
	Credits   int    `json:"credits" validate:"required,min=1,max=30"`
	ProgramID string `json:"programId" validate:"required"`
	Semester  int    `json:"semester,omitempty" validate:"omitempty,min=1,max=16"`
}

// Batch is an intake cohort of a program.
type Batch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProgramID string `json:"programId"`
	StartYear int    `json:"startYear"`
	EndYear   int    `json:"endYear"`
}

// BatchInput creates or updates a batch.
type BatchInput struct {
	Name      string `json:"name" validate:"required,trimmed"`
	ProgramID string `json:"programId" validate:"required"`
	StartYear int    `json:"startYear" validate:"required,min=1900"`
	EndYear   int    `json:"endYear" validate:"required,gtfield=StartYear"`
}

// Session is an academic year or term.
type Session struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AcademicYear string `json:"academicYear"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Current      bool   `json:"current"`
}

// SessionInput creates or updates a session.
type SessionInput struct {
	Name         string `json:"name" validate:"required,trimmed"`
	AcademicYear string `json:"academicYear" validate:"required,academicyear"`
	StartDate    string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Current      bool   `json:"current"`
}

// Syllabus is an uploaded course outline.
type Syllabus struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	FileURL  string `json:"fileUrl,omitempty"`
	Version  int    `json:"version,omitempty"`
}

// Classroom is a bookable room.
type Classroom struct {
	ID           string `json:"id"`
	Building     string `json:"building"`
	Room         string `json:"room"`
	Capacity     int    `json:"capacity"`
	HasProjector bool   `json:"hasProjector"`
}

// ClassroomInput creates or updates a classroom.
type ClassroomInput struct {
	Building     string `json:"building" validate:"required,trimmed"`
	Room         string `json:"room" validate:"required,trimmed"`
	Capacity     int    `json:"capacity" validate:"required,min=1,max=2000"`
	HasProjector bool   `json:"hasProjector"`
}
