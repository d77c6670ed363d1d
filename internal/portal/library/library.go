// Package library covers the catalogue and circulation desk: books,
// copies, reservations and borrowings.
package library

import (
	"context"
	"net/http"
	"time"

	"github.com/kart-io/campus-portal/internal/portal/action"
	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
)

// Resource paths.
const (
	PathBooks        = "/library/books"
	PathCopies       = "/library/book-copies"
	PathReservations = "/library/reservations"
	PathBorrowings   = "/library/borrowings"

	// KeyCopies is the list key of the book-copies endpoint.
	KeyCopies = "copies"
)

// DefaultLoanPeriod is used by Borrow when no due date is given.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Copy statuses.
const (
	CopyAvailable = "available"
	CopyBorrowed  = "borrowed"
	CopyReserved  = "reserved"
	CopyLost      = "lost"
)

// Book is a catalogue title.
type Book struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedYear int    `json:"publishedYear,omitempty"`
	Category      string `json:"category,omitempty"`
	Available     int    `json:"availableCopies,omitempty"`
}

// BookInput creates or updates a book.
type BookInput struct {
	Title         string `json:"title" validate:"required,trimmed"`
	Author        string `json:"author" validate:"required,trimmed"`
	ISBN          string `json:"isbn" validate:"required,isbn"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedYear int    `json:"publishedYear,omitempty" validate:"omitempty,min=1450"`
	Category      string `json:"category,omitempty"`
}

// BookCopy is a physical copy of a book.
type BookCopy struct {
	ID      string `json:"id"`
	BookID  string `json:"bookId"`
	Barcode string `json:"barcode"`
	Status  string `json:"status"`
	Shelf   string `json:"shelf,omitempty"`
}

// Reservation holds a book for a member.
type Reservation struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	UserID     string     `json:"userId"`
	Status     string     `json:"status"`
	ReservedAt time.Time  `json:"reservedAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// Borrowing is a loan of one copy.
type Borrowing struct {
	ID         string     `json:"id"`
	CopyID     string     `json:"copyId"`
	UserID     string     `json:"userId"`
	Status     string     `json:"status"`
	BorrowedAt time.Time  `json:"borrowedAt"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	Fine       float64    `json:"fine,omitempty"`
}

// Overdue reports whether the loan is past due at now and not returned.
func (b Borrowing) Overdue(now time.Time) bool {
	return b.ReturnedAt == nil && !b.DueDate.IsZero() && now.After(b.DueDate)
}

// BorrowRequest issues a copy to a member.
type BorrowRequest struct {
	CopyID  string    `json:"copyId" validate:"required"`
	UserID  string    `json:"userId" validate:"required"`
	DueDate time.Time `json:"dueDate"`
}

// ReserveRequest places a hold on a title.
type ReserveRequest struct {
	BookID string `json:"bookId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// Module groups the library resources.
type Module struct {
	Books        *resource.Client[Book]
	Copies       *resource.Client[BookCopy]
	Reservations *resource.Client[Reservation]
	Borrowings   *resource.Client[Borrowing]

	transport *rest.Client
	now       func() time.Time
}

// New builds the module on one transport.
func New(t *rest.Client) *Module {
	return &Module{
		Books:        resource.New[Book](t, PathBooks),
		Copies:       resource.New[BookCopy](t, PathCopies, resource.WithResourceKey(KeyCopies)),
		Reservations: resource.New[Reservation](t, PathReservations),
		Borrowings:   resource.New[Borrowing](t, PathBorrowings),
		transport:    t,
		now:          time.Now,
	}
}

// AddBook checks in and creates the title.
func (m *Module) AddBook(ctx context.Context, in BookInput) (Book, error) {
	if err := action.Validate(in); err != nil {
		return Book{}, err
	}
	return m.Books.Create(ctx, in)
}

// SearchBooks lists titles matching query.
func (m *Module) SearchBooks(ctx context.Context, query string, page int) (*resource.List[Book], error) {
	params := rest.Params{"search": query}
	if page > 0 {
		params["page"] = page
	}
	return m.Books.List(ctx, params)
}

// AvailableCopies lists the copies of a book that can be borrowed.
func (m *Module) AvailableCopies(ctx context.Context, bookID string) ([]BookCopy, error) {
	copies, err := resource.Collect(ctx, m.Copies, rest.Params{"bookId": bookID, "status": CopyAvailable}, 0)
	if err != nil {
		return nil, err
	}
	out := copies[:0]
	for _, c := range copies {
		if c.Status == "" || c.Status == CopyAvailable {
			out = append(out, c)
		}
	}
	return out, nil
}

// Borrow issues a copy. A zero due date means DefaultLoanPeriod from now.
func (m *Module) Borrow(ctx context.Context, req BorrowRequest) (Borrowing, error) {
	if err := action.Validate(req); err != nil {
		return Borrowing{}, err
	}
	now := m.now()
	if req.DueDate.IsZero() {
		req.DueDate = now.Add(DefaultLoanPeriod).UTC().Truncate(time.Second)
	}
	if !req.DueDate.After(now) {
		return Borrowing{}, action.Reject("dueDate", "dueDate must be in the future")
	}
	return m.Borrowings.Create(ctx, req)
}

// Return checks a borrowed copy back in.
func (m *Module) Return(ctx context.Context, borrowingID string) (Borrowing, error) {
	return rest.Post[Borrowing](ctx, m.transport, PathBorrowings+"/"+rest.PathEscape(borrowingID)+"/return", nil)
}

// Renew extends a loan by the server's renewal period.
func (m *Module) Renew(ctx context.Context, borrowingID string) (Borrowing, error) {
	return rest.Post[Borrowing](ctx, m.transport, PathBorrowings+"/"+rest.PathEscape(borrowingID)+"/renew", nil)
}

// Reserve places a hold on a title.
func (m *Module) Reserve(ctx context.Context, req ReserveRequest) (Reservation, error) {
	if err := action.Validate(req); err != nil {
		return Reservation{}, err
	}
	return m.Reservations.Create(ctx, req)
}

// CancelReservation releases a hold.
func (m *Module) CancelReservation(ctx context.Context, reservationID string) (*resource.Message, error) {
	path := PathReservations + "/" + rest.PathEscape(reservationID) + "/cancel"
	return action.Run(ctx, m.transport, http.MethodPost, path, nil, "Reservation cancelled")
}

// Overdue lists loans past their due date.
func (m *Module) Overdue(ctx context.Context) ([]Borrowing, error) {
	return rest.GetList[Borrowing](ctx, m.transport, PathBorrowings+"/overdue", nil)
}

// OutstandingFines sums the fines of the overdue loans.
func (m *Module) OutstandingFines(ctx context.Context) (float64, error) {
	loans, err := m.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, l := range loans {
		total += l.Fine
	}
	return total, nil
}
