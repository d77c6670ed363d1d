package biz

import (
	"context"
	"time"

	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/validator"
)

// DefaultLoanPeriod is how far a renewal pushes the due date.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Record statuses written by the workflows.
const (
	StatusReturned  = "returned"
	StatusCancelled = "cancelled"
	StatusClosed    = "closed"
)

// Outcome is what a workflow hands back: the updated item, or only a
// message for workflows whose clients expect one.
type Outcome struct {
	Item    Item
	Message string
}

type workflow struct {
	// message, when set, makes the reply message-only.
	message string
	apply   func(item, in Item, actor string, now time.Time) error
}

var workflows = map[string]workflow{
	"return": {apply: func(item, _ Item, _ string, now time.Time) error {
		if item["status"] == StatusReturned {
			return errors.ErrConflict.WithMessage("Copy already returned")
		}
		item["status"] = StatusReturned
		item["returnedAt"] = now.UTC().Format(time.RFC3339)
		return nil
	}},
	"renew": {apply: func(item, _ Item, _ string, now time.Time) error {
		if item["status"] == StatusReturned {
			return errors.ErrConflict.WithMessage("Returned loans cannot be renewed")
		}
		due := now
		if s, ok := item["dueDate"].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				due = t
			}
		}
		item["dueDate"] = due.Add(DefaultLoanPeriod).UTC().Format(time.RFC3339)
		renewals, _ := item["renewals"].(float64)
		item["renewals"] = renewals + 1
		return nil
	}},
	"cancel": {message: "Reservation cancelled", apply: func(item, _ Item, _ string, _ time.Time) error {
		item["status"] = StatusCancelled
		return nil
	}},
	"close": {message: "Ticket closed", apply: func(item, _ Item, _ string, _ time.Time) error {
		item["status"] = StatusClosed
		return nil
	}},
	"replies": {apply: func(item, in Item, actor string, now time.Time) error {
		msg, _ := in["message"].(string)
		if msg == "" {
			return validator.NewValidationError("message", "required", "message is required")
		}
		if item["status"] == StatusClosed {
			return errors.ErrConflict.WithMessage("Ticket is closed")
		}
		replies, _ := item["replies"].([]interface{})
		item["replies"] = append(replies, map[string]interface{}{
			"id":        id.NewULID(),
			"authorId":  actor,
			"message":   msg,
			"createdAt": now.UTC().Format(time.RFC3339),
		})
		return nil
	}},
}

// HasWorkflow reports whether action names a workflow.
func HasWorkflow(action string) bool {
	_, ok := workflows[action]
	return ok
}

// Run applies the named workflow to an item on behalf of actor.
func (s *RecordService) Run(ctx context.Context, resource, itemID, action string, in Item, actor string) (*Outcome, error) {
	wf, ok := workflows[action]
	if !ok {
		return nil, errors.ErrUnknownAction.WithMessagef("Unknown action %q", action)
	}
	item, err := s.mutate(ctx, resource, itemID, func(item Item) error {
		return wf.apply(item, in, actor, s.now())
	})
	if err != nil {
		return nil, err
	}
	if wf.message != "" {
		return &Outcome{Message: wf.message}, nil
	}
	return &Outcome{Item: item}, nil
}

// Overdue lists loans past due and not returned.
func (s *RecordService) Overdue(ctx context.Context, resource string) ([]Item, error) {
	items, _, err := s.List(ctx, resource, ListQuery{})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Item, 0)
	for _, item := range items {
		if item["status"] == StatusReturned {
			continue
		}
		due, ok := item["dueDate"].(string)
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339, due)
		if err == nil && t.Before(now) {
			out = append(out, item)
		}
	}
	return out, nil
}
