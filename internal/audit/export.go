package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/access"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/domain"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidFormat = errors.New("invalid export format")
)

// Format is the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ExportParams are the raw query inputs. From and To are dates
// (YYYY-MM-DD or RFC3339); either may be empty.
type ExportParams struct {
	From   string
	To     string
	Format string
}

// Report is an encoded export ready to be written to a response.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
	Records     int
}

// Row is one exported entry.
type Row struct {
	Timestamp time.Time              `json:"timestamp"`
	UserName  string                 `json:"userName"`
	Role      string                 `json:"role"`
	Action    string                 `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  string                 `json:"entityId"`
	CaseID    *string                `json:"caseId"`
	Details   map[string]interface{} `json:"details"`
}

type jsonEnvelope struct {
	ExportedAt   time.Time `json:"exportedAt"`
	TotalRecords int       `json:"totalRecords"`
	Data         []Row     `json:"data"`
}

// Export returns the entries p may see within the requested range.
// Admin sees everything; an Attorney sees entries traceable to cases they are
// the assigned attorney on; any other role gets access.ErrForbidden.
func (t *Trail) Export(ctx context.Context, p domain.Principal, params ExportParams) (*Report, error) {
	format := Format(strings.ToLower(strings.TrimSpace(params.Format)))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, params.Format)
	}

	from, to, err := DayRange(params.From, params.To, t.location)
	if err != nil {
		return nil, err
	}
	filter := domain.AuditFilter{From: from, To: to}

	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleAttorney:
		caseIDs, err := t.cases.IDs(ctx, access.Scope{AttorneyID: p.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve attorney cases: %w", err)
		}
		if caseIDs == nil {
			caseIDs = []string{}
		}
		filter.CaseIDs = caseIDs
	default:
		return nil, access.ErrForbidden
	}

	entries, err := t.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	rows := make([]Row, 0, len(entries))
	for i := range entries {
		rows = append(rows, toRow(&entries[i]))
	}

	now := t.now()
	if format == FormatJSON {
		body, err := EncodeJSON(rows, now)
		if err != nil {
			return nil, err
		}
		return &Report{
			Filename:    fmt.Sprintf("audit_logs_%d.json", now.UnixMilli()),
			ContentType: "application/json",
			Body:        body,
			Records:     len(rows),
		}, nil
	}

	body, err := EncodeCSV(rows)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename:    fmt.Sprintf("audit_logs_%d.csv", now.UnixMilli()),
		ContentType: "text/csv",
		Body:        body,
		Records:     len(rows),
	}, nil
}

func toRow(e *domain.AuditEntry) Row {
	row := Row{
		Timestamp: e.Timestamp.UTC(),
		UserName:  "System",
		Role:      "-",
		Action:    e.Action,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Details:   e.Metadata,
	}
	if e.UserName != nil && *e.UserName != "" {
		row.UserName = *e.UserName
	}
	if e.Role != nil && *e.Role != "" {
		row.Role = *e.Role
	}
	if caseID, ok := e.MetadataCaseID(); ok {
		row.CaseID = &caseID
	}
	if row.Details == nil {
		row.Details = map[string]interface{}{}
	}
	return row
}

// DayRange parses the bounds in loc, widening from to the start of its day
// and to to the last millisecond of its day.
func DayRange(from, to string, loc *time.Location) (*time.Time, *time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var start, end *time.Time
	if strings.TrimSpace(from) != "" {
		d, err := parseDay(from, loc)
		if err != nil {
			return nil, nil, err
		}
		s := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		start = &s
	}
	if strings.TrimSpace(to) != "" {
		d, err := parseDay(to, loc)
		if err != nil {
			return nil, nil, err
		}
		e := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
		end = &e
	}
	return start, end, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// EncodeJSON renders the pretty-printed export envelope.
func EncodeJSON(rows []Row, exportedAt time.Time) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	body, err := json.MarshalIndent(jsonEnvelope{
		ExportedAt:   exportedAt.UTC(),
		TotalRecords: len(rows),
		Data:         rows,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit export: %w", err)
	}
	return body, nil
}

// EncodeCSV renders rows with a header row built from the union of keys
// in first-seen order. Nested values are JSON encoded; null becomes empty.
func EncodeCSV(rows []Row) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	records := make([]map[string]interface{}, 0, len(rows))
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		record, order, err := flatten(row)
		if err != nil {
			return nil, err
		}
		for _, k := range order {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		records = append(records, record)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	line := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			cell, err := csvCell(record[col])
			if err != nil {
				return nil, err
			}
			line[i] = cell
		}
		if err := w.Write(line); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten turns a row into its JSON object form plus the key order.
func flatten(row Row) (map[string]interface{}, []string, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode audit row: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	record := make(map[string]interface{})
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		record[key] = v
		order = append(order, key)
	}
	return record, order, nil
}

func csvCell(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return fmt.Sprint(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode csv cell: %w", err)
		}
		return string(b), nil
	}
}
