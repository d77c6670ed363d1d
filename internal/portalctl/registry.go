package portalctl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kart-io/campus-portal/internal/portal/academic"
	"github.com/kart-io/campus-portal/internal/portal/account"
	"github.com/kart-io/campus-portal/internal/portal/enrollment"
	"github.com/kart-io/campus-portal/internal/portal/library"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// Record is a resource item as the CLI sees it: untyped JSON.
type Record = map[string]interface{}

// Entry describes one resource reachable from the command line.
type Entry struct {
	Name    string
	Aliases []string
	Path    string
	Key     string
	Columns []string
}

// Client returns an untyped CRUD client for the entry.
func (e Entry) Client(t *rest.Client) *resource.Client[Record] {
	var opts []resource.Option
	if e.Key != "" {
		opts = append(opts, resource.WithResourceKey(e.Key))
	}
	return resource.New[Record](t, e.Path, opts...)
}

var registry = []Entry{
	{Name: "departments", Aliases: []string{"department", "dept"}, Path: academic.PathDepartments,
		Columns: []string{"id", "code", "name"}},
	{Name: "faculties", Aliases: []string{"faculty"}, Path: academic.PathFaculties,
		Columns: []string{"id", "firstName", "lastName", "email", "departmentId"}},
	{Name: "programs", Aliases: []string{"program"}, Path: academic.PathPrograms,
		Columns: []string{"id", "code", "name", "degree", "departmentId"}},
	{Name: "courses", Aliases: []string{"course"}, Path: academic.PathCourses,
		Columns: []string{"id", "code", "title", "credits", "programId"}},
	{Name: "batches", Aliases: []string{"batch"}, Path: academic.PathBatches,
		Columns: []string{"id", "name", "programId", "startYear", "endYear"}},
	{Name: "sessions", Aliases: []string{"session"}, Path: academic.PathSessions,
		Columns: []string{"id", "name", "academicYear", "startDate", "endDate", "current"}},
	{Name: "syllabi", Aliases: []string{"syllabus"}, Path: academic.PathSyllabi, Key: academic.KeySyllabi,
		Columns: []string{"id", "courseId", "title", "version"}},
	{Name: "classrooms", Aliases: []string{"classroom", "rooms"}, Path: academic.PathClassrooms,
		Columns: []string{"id", "building", "room", "capacity"}},

	{Name: "books", Aliases: []string{"book"}, Path: library.PathBooks,
		Columns: []string{"id", "isbn", "title", "author"}},
	{Name: "copies", Aliases: []string{"book-copies", "copy"}, Path: library.PathCopies, Key: library.KeyCopies,
		Columns: []string{"id", "bookId", "barcode", "status"}},
	{Name: "reservations", Aliases: []string{"reservation"}, Path: library.PathReservations,
		Columns: []string{"id", "bookId", "userId", "status"}},
	{Name: "borrowings", Aliases: []string{"borrowing", "loans"}, Path: library.PathBorrowings,
		Columns: []string{"id", "copyId", "userId", "dueDate", "status"}},

	{Name: "assessments", Aliases: []string{"assessment"}, Path: enrollment.PathAssessments,
		Columns: []string{"id", "courseId", "title", "type", "maxScore"}},
	{Name: "attendance", Path: enrollment.PathAttendance,
		Columns: []string{"id", "studentId", "courseId", "date", "status"}},
	{Name: "assignments", Aliases: []string{"instructor-assignments"}, Path: enrollment.PathInstructorAssignments,
		Key: enrollment.KeyInstructorAssignments, Columns: []string{"id", "facultyId", "courseId", "batchId"}},
	{Name: "grades", Aliases: []string{"grade"}, Path: enrollment.PathGrades,
		Columns: []string{"id", "studentId", "assessmentId", "score", "letterGrade"}},

	{Name: "students", Aliases: []string{"student"}, Path: account.PathStudents,
		Columns: []string{"id", "studentNumber", "firstName", "lastName", "email"}},
	{Name: "tickets", Aliases: []string{"ticket"}, Path: account.PathTickets,
		Columns: []string{"id", "subject", "status", "priority"}},
}

// Lookup finds an entry by name or alias, case-insensitively.
func Lookup(name string) (Entry, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range registry {
		if e.Name == name {
			return e, nil
		}
		for _, a := range e.Aliases {
			if a == name {
				return e, nil
			}
		}
	}
	return Entry{}, fmt.Errorf("unknown resource %q (run \"%s resources\" for the list)", name, appName)
}

// Names returns the canonical resource names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of the registry.
func Entries() []Entry {
	return append([]Entry(nil), registry...)
}
