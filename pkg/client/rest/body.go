package rest

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"reflect"
	"sort"

	"github.com/kart-io/campus-portal/pkg/utils/json"
)

// Body is a request payload.
type Body interface {
	// Encode returns the body reader and its content type.
	Encode() (io.Reader, string, error)
}

type jsonBody struct {
	v interface{}
}

// JSON wraps v as an application/json body.
func JSON(v interface{}) Body {
	return jsonBody{v: v}
}

func (b jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// File is one file part of a multipart form.
type File struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}

// MultipartForm is a file-upload payload.
type MultipartForm struct {
	Fields map[string]string
	Files  []File
}

// Multipart wraps form as a multipart/form-data body.
func Multipart(form *MultipartForm) Body {
	return form
}

// Encode implements Body. Fields are written in key order.
func (f *MultipartForm) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, file := range f.Files {
		if file.Reader == nil {
			return nil, "", fmt.Errorf("file part %q has no reader", file.Field)
		}
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Params are query parameters forwarded verbatim.
// Slice values expand into repeated keys; nil values are dropped.
type Params map[string]interface{}

// Values converts p into url.Values.
func (p Params) Values() url.Values {
	if len(p) == 0 {
		return nil
	}
	q := make(url.Values, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				q.Add(k, fmt.Sprint(rv.Index(i).Interface()))
			}
			continue
		}
		q.Set(k, fmt.Sprint(v))
	}
	return q
}

// Merge returns a copy of p with other's entries on top.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
