package portalctl

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

const maxColWidth = 60

// printer renders command results in the selected format.
type printer struct {
	out    io.Writer
	format string
}

// Print writes v. columns picks and orders table columns; nil means every
// field with "id" first.
func (p printer) Print(v interface{}, columns []string) error {
	switch p.format {
	case OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	case OutputYAML:
		generic, err := normalize(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return p.table(v, columns)
	}
}

// PrintPage writes a list and, in table mode, a pagination footer.
func (p printer) PrintPage(items []Record, page *response.Pagination, columns []string) error {
	if items == nil {
		items = []Record{}
	}
	if p.format != OutputTable {
		return p.Print(struct {
			Data       []Record             `json:"data"`
			Pagination *response.Pagination `json:"pagination,omitempty"`
		}{items, page}, columns)
	}
	if err := p.table(items, columns); err != nil {
		return err
	}
	if page != nil && page.Pages > 0 {
		_, err := fmt.Fprintf(p.out, "\nPage %d/%d (%d total)\n", page.Page, page.Pages, page.Total)
		return err
	}
	return nil
}

// Message writes a one-line confirmation.
func (p printer) Message(msg string) error {
	if p.format != OutputTable {
		return p.Print(map[string]string{"message": msg}, nil)
	}
	_, err := fmt.Fprintln(p.out, msg)
	return err
}

func (p printer) table(v interface{}, columns []string) error {
	generic, err := normalize(v)
	if err != nil {
		return err
	}

	t := uitable.New()
	t.MaxColWidth = maxColWidth

	switch val := generic.(type) {
	case []interface{}:
		if len(val) == 0 {
			_, err := fmt.Fprintln(p.out, "No resources found.")
			return err
		}
		rows := make([]map[string]interface{}, 0, len(val))
		for _, item := range val {
			m, ok := item.(map[string]interface{})
			if !ok {
				m = map[string]interface{}{"value": item}
			}
			rows = append(rows, m)
		}
		cols := columns
		if len(cols) == 0 {
			cols = keysOf(rows...)
		}
		header := make([]interface{}, len(cols))
		for i, c := range cols {
			header[i] = headerName(c)
		}
		t.AddRow(header...)
		for _, row := range rows {
			cells := make([]interface{}, len(cols))
			for i, c := range cols {
				cells[i] = cell(row[c])
			}
			t.AddRow(cells...)
		}
	case map[string]interface{}:
		t.AddRow("FIELD", "VALUE")
		for _, k := range keysOf(val) {
			t.AddRow(k, cell(val[k]))
		}
	default:
		t.AddRow(cell(val))
	}

	_, err = fmt.Fprintln(p.out, t.String())
	return err
}

// normalize turns typed values into the generic JSON shape so every format
// sees the same field names.
func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func keysOf(rows ...map[string]interface{}) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		if k != "id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := seen["id"]; ok {
		keys = append([]string{"id"}, keys...)
	}
	return keys
}

// headerName turns "studentNumber" into "STUDENT NUMBER".
func headerName(field string) string {
	var sb strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return strings.ToUpper(sb.String())
}

func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// printError renders err for a terminal: the message with its status, then
// one line per field error.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	apiErr, ok := rest.AsAPIError(err)
	if !ok {
		_, _ = red.Fprint(w, "Error: ")
		_, _ = fmt.Fprintln(w, err)
		return
	}

	_, _ = red.Fprint(w, "Error: ")
	_, _ = fmt.Fprintf(w, "%s (%d)\n", apiErr.Message, apiErr.StatusCode)
	for _, fe := range apiErr.Errors {
		path := fe.Path
		if path == "" {
			path = "-"
		}
		_, _ = fmt.Fprintf(w, "  %s: %s\n", color.YellowString(path), fe.Message)
	}
	if apiErr.IsNetwork() {
		if cause := apiErr.Unwrap(); cause != nil {
			_, _ = fmt.Fprintf(w, "  cause: %v\n", cause)
		}
	}
}
