package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-portal/internal/devserver/biz"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/id"
	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/utils/response"
	"github.com/kart-io/campus-portal/pkg/validator"
)

// Paging defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxUploadSize bounds multipart bodies.
	MaxUploadSize = 10 << 20
)

// reserved query parameters; every other one is an equality filter.
// mine=true keeps the caller's own items.
var reserved = map[string]bool{"page": true, "limit": true, "search": true, "mine": true}

// views are read-only lists served under a resource, keyed by path.
var views = map[string]func(*RecordHandler, *gin.Context, string){
	"/library/borrowings/overdue": (*RecordHandler).overdue,
}

// RecordHandler serves the generic /:group/:name routes.
type RecordHandler struct {
	svc      *biz.RecordService
	dialects Dialects
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *biz.RecordService, dialects Dialects) *RecordHandler {
	if dialects == nil {
		dialects = DefaultDialects()
	}
	return &RecordHandler{svc: svc, dialects: dialects}
}

func resourceOf(c *gin.Context) string {
	return "/" + c.Param("group") + "/" + c.Param("name")
}

// List handles GET /:group/:name.
func (h *RecordHandler) List(c *gin.Context) {
	res := resourceOf(c)
	dl := h.dialects.Of(res)

	q := biz.ListQuery{Search: c.Query("search"), Filters: map[string]string{}}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		q.Owner = userID(c)
	}
	for k, v := range c.Request.URL.Query() {
		if !reserved[k] && len(v) > 0 {
			q.Filters[k] = v[0]
		}
	}
	if dl.Kind != Flat {
		var err error
		if q.Page, q.Limit, err = paging(c); err != nil {
			fail(c, err)
			return
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), res, q)
	if err != nil {
		fail(c, err)
		return
	}
	var p *response.Pagination
	if dl.Kind != Flat {
		p = response.NewPagination(total, q.Page, q.Limit)
	}
	writer(c).Write(dl.Page(items, p))
}

// ListDeleted handles GET /:group/:name/deleted.
func (h *RecordHandler) ListDeleted(c *gin.Context) {
	res := resourceOf(c)
	items, err := h.svc.ListDeleted(c.Request.Context(), res)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).Write(h.dialects.Of(res).Page(items, nil))
}

// Get handles GET /:group/:name/:id, including the named views.
func (h *RecordHandler) Get(c *gin.Context) {
	res := resourceOf(c)
	if view, ok := views[res+"/"+c.Param("id")]; ok {
		view(h, c, res)
		return
	}
	item, err := h.svc.Get(c.Request.Context(), res, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(item)
}

// Create handles POST /:group/:name with a JSON or multipart body.
func (h *RecordHandler) Create(c *gin.Context) {
	var (
		body biz.Item
		err  error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		body, err = formBody(c)
	} else {
		body, err = jsonBody(c)
	}
	if err != nil {
		fail(c, err)
		return
	}
	item, err := h.svc.CreateFor(c.Request.Context(), resourceOf(c), body, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).Created(item)
}

// Update handles PATCH and PUT /:group/:name/:id.
func (h *RecordHandler) Update(c *gin.Context) {
	body, err := jsonBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	item, err := h.svc.Update(c.Request.Context(), resourceOf(c), c.Param("id"), body)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(item)
}

// Delete handles DELETE /:group/:name/:id.
func (h *RecordHandler) Delete(c *gin.Context) {
	msg, err := h.svc.Delete(c.Request.Context(), resourceOf(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	message(c, msg)
}

// Purge handles DELETE /:group/:name/:id/permanently. It answers 204.
func (h *RecordHandler) Purge(c *gin.Context) {
	if _, err := h.svc.Purge(c.Request.Context(), resourceOf(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Action handles POST /:group/:name/:id/:action: restore plus the desk
// workflows.
func (h *RecordHandler) Action(c *gin.Context) {
	ctx := c.Request.Context()
	res, itemID, act := resourceOf(c), c.Param("id"), c.Param("action")

	if act == "restore" {
		item, err := h.svc.Restore(ctx, res, itemID)
		if err != nil {
			fail(c, err)
			return
		}
		writer(c).OK(item)
		return
	}
	if !biz.HasWorkflow(act) {
		fail(c, errors.ErrUnknownAction.WithMessagef("Unknown action %q", act))
		return
	}

	in := biz.Item{}
	if c.Request.ContentLength != 0 {
		var err error
		if in, err = jsonBody(c); err != nil {
			fail(c, err)
			return
		}
	}
	out, err := h.svc.Run(ctx, res, itemID, act, in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if out.Item == nil {
		message(c, out.Message)
		return
	}
	writer(c).OK(out.Item)
}

func (h *RecordHandler) overdue(c *gin.Context, res string) {
	items, err := h.svc.Overdue(c.Request.Context(), res)
	if err != nil {
		fail(c, err)
		return
	}
	writer(c).OK(items)
}

func paging(c *gin.Context) (page, limit int, err error) {
	page, limit = 1, DefaultLimit
	if v := c.Query("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, validator.NewValidationError("page", "min", "page must be a positive integer")
		}
	}
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			return 0, 0, validator.NewValidationError("limit", "min", "limit must be a positive integer")
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, nil
}

func jsonBody(c *gin.Context) (biz.Item, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.ErrBadRequest.WithCause(err)
	}
	var body biz.Item
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return nil, errors.ErrBadRequest.WithMessage("Request body must be a JSON object")
	}
	return body, nil
}

// formBody turns a multipart form into an item. Canonical integers become
// numbers unless the field is an ID; each file is recorded by name, size
// and URL, not stored.
func formBody(c *gin.Context) (biz.Item, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.ErrBadRequest.WithMessage("Unreadable multipart body").WithCause(err)
	}

	body := biz.Item{}
	for k, vs := range form.Value {
		if len(vs) == 0 {
			continue
		}
		v := vs[0]
		if n, err := strconv.Atoi(v); err == nil && strconv.Itoa(n) == v && !strings.HasSuffix(strings.ToLower(k), "id") {
			body[k] = n
			continue
		}
		body[k] = v
	}
	for field, files := range form.File {
		if len(files) == 0 {
			continue
		}
		fh := files[0]
		name := filepath.Base(fh.Filename)
		body[field+"Name"] = name
		body[field+"Size"] = fh.Size
		body[field+"Url"] = "/files/" + id.NewULID() + "/" + name
	}
	return body, nil
}
