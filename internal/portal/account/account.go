// Package account covers the signed-in user's profile, the student
// directory and support tickets.
package account

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// Resource paths.
const (
	PathProfile  = "/user/profile"
	PathStudents = "/user/students"
	PathTickets  = "/support/tickets"
)

// Ticket statuses.
const (
	TicketOpen     = "open"
	TicketPending  = "pending"
	TicketResolved = "resolved"
	TicketClosed   = "closed"
)

var avatarTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Profile is the signed-in user's account record.
type Profile struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone,omitempty"`
	AvatarURL        string `json:"avatarUrl,omitempty"`
	Role             string `json:"role"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

// ProfileUpdate carries the editable profile fields. Empty fields are
// left unchanged.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,trimmed,max=60"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,trimmed,max=60"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// Student is an enrolled student.
type Student struct {
	ID            string `json:"id"`
	StudentNumber string `json:"studentNumber"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	ProgramID     string `json:"programId,omitempty"`
	BatchID       string `json:"batchId,omitempty"`
	Status        string `json:"status,omitempty"`
}

// FullName joins the first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentInput creates or updates a student.
type StudentInput struct {
	StudentNumber string `json:"studentNumber" validate:"required,alphanum"`
	FirstName     string `json:"firstName" validate:"required,trimmed"`
	LastName      string `json:"lastName" validate:"required,trimmed"`
	Email         string `json:"email" validate:"required,email"`
	ProgramID     string `json:"programId" validate:"required"`
	BatchID       string `json:"batchId,omitempty"`
}

// Ticket is a support request.
type Ticket struct {
	ID          string        `json:"id"`
	Subject     string        `json:"subject"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority,omitempty"`
	Replies     []TicketReply `json:"replies,omitempty"`
	CreatedAt   time.Time     `json:"createdAt,omitempty"`
}

// TicketReply is one message in a ticket thread.
type TicketReply struct {
	ID        string    `json:"id,omitempty"`
	AuthorID  string    `json:"authorId,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// TicketInput opens a ticket.
type TicketInput struct {
	Subject     string `json:"subject" validate:"required,trimmed,max=200"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
}

// Module groups the account resources.
type Module struct {
	Students *resource.Client[Student]
	Tickets  *Tickets

	transport *rest.Client
}

// New builds the module on one transport.
func New(t *rest.Client) *Module {
	return &Module{
		Students:  resource.New[Student](t, PathStudents),
		Tickets:   &Tickets{resource.New[Ticket](t, PathTickets)},
		transport: t,
	}
}

// Profile fetches the signed-in user's profile.
func (m *Module) Profile(ctx context.Context) (Profile, error) {
	return rest.Get[Profile](ctx, m.transport, PathProfile, nil)
}

// UpdateProfile patches the profile.
func (m *Module) UpdateProfile(ctx context.Context, in ProfileUpdate) (Profile, error) {
	if err := action.Validate(in); err != nil {
		return Profile{}, err
	}
	return rest.Patch[Profile](ctx, m.transport, PathProfile, rest.JSON(in))
}

// UploadAvatar replaces the profile picture. The image type is taken from
// the file extension.
func (m *Module) UploadAvatar(ctx context.Context, fileName string, r io.Reader) (Profile, error) {
	ct, ok := avatarTypes[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return Profile{}, action.Reject("avatar", "avatar must be a PNG, JPEG or WebP image")
	}
	form := &rest.MultipartForm{
		Files: []rest.File{{Field: "avatar", Name: filepath.Base(fileName), ContentType: ct, Reader: r}},
	}
	return rest.Post[Profile](ctx, m.transport, PathProfile+"/avatar", rest.Multipart(form))
}

// AddStudent checks in and creates the student.
func (m *Module) AddStudent(ctx context.Context, in StudentInput) (Student, error) {
	if err := action.Validate(in); err != nil {
		return Student{}, err
	}
	return m.Students.Create(ctx, in)
}

// Tickets is the support ticket resource with thread operations.
type Tickets struct {
	*resource.Client[Ticket]
}

// Open checks in and opens a ticket.
func (t *Tickets) Open(ctx context.Context, in TicketInput) (Ticket, error) {
	if err := action.Validate(in); err != nil {
		return Ticket{}, err
	}
	return t.Create(ctx, in)
}

// Reply appends a message to the ticket thread and returns the ticket.
func (t *Tickets) Reply(ctx context.Context, ticketID, message string) (Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Ticket{}, action.Reject("message", "message is required")
	}
	path := t.Path() + "/" + rest.PathEscape(ticketID) + "/replies"
	return rest.Post[Ticket](ctx, t.Transport(), path, rest.JSON(map[string]string{"message": message}))
}

// Close marks the ticket closed.
func (t *Tickets) Close(ctx context.Context, ticketID string) (*resource.Message, error) {
	path := t.Path() + "/" + rest.PathEscape(ticketID) + "/close"
	return action.Run(ctx, t.Transport(), http.MethodPost, path, nil, "Ticket closed")
}

// Mine lists the signed-in user's tickets with the given status ("" for all).
func (t *Tickets) Mine(ctx context.Context, status string) ([]Ticket, error) {
	params := rest.Params{"mine": true}
	if status != "" {
		params["status"] = status
	}
	return resource.Collect(ctx, t.Client, params, 0)
}
