package weeklyplanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"weeklyplanner-auto/lib/chrono"
	"weeklyplanner-auto/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StaffRecord is one row of the staff listing table for a date.
type StaffRecord struct {
	Name    string
	StaffId string
	Room    string
}

// StaffTable is the decoded staff listing for one date. Malformed holds the
// raw markup of rows that did not match both of the field patterns; a bad
// row never aborts the batch, the source table is known to emit
// occasionally inconsistent markup and losing one row must not block the
// others.
type StaffTable struct {
	Records   []StaffRecord
	Malformed []string
}

// FetchStaffTable loads and decodes the staff listing for date. Staff
// availability is per date, callers must not reuse a table across dates.
func (s *Session) FetchStaffTable(ctx context.Context, creds Credentials, date time.Time) (StaffTable, error) {
	ctx, span := tracer.Start(ctx, "session:FetchStaffTable")
	defer span.End()
	span.SetAttributes(attribute.String("date", chrono.ISODate(date)))

	res, err := s.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"table_name":    "staff",
			"sequence_flag": "N",
			"action":        "load-staff",
			"block_num":     "1",
			"selected_date": chrono.ISODate(date),
			"user_num":      creds.UserNum,
		}).
		Get("/ajax.DataTable.Fetch.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "staff table fetch failed")
		return StaffTable{}, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected staff table status")
		return StaffTable{}, s.statusError(nil, res, "staff table fetch")
	}

	var envelope struct {
		Content string `json:"content"`
	}
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode staff table envelope")
		return StaffTable{}, fmt.Errorf("failed to decode staff table envelope: %w", err)
	}

	table, err := ExtractStaffTable(envelope.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract staff table")
		return StaffTable{}, err
	}
	span.SetAttributes(
		attribute.Int("records", len(table.Records)),
		attribute.Int("malformed", len(table.Malformed)),
	)
	return table, nil
}

// The two structural patterns that make up the row contract: a room token
// following a line break, and a staff id plus display name from the named
// span. Any row shape beyond these two is a malformed row, never a crash.
var (
	roomRegex  = regexp.MustCompile(`<br ?/?> ?-- ?([0-9a-zA-Z]+)`)
	staffRegex = regexp.MustCompile(`<span id=['"]name([0-9]+)['"]> ?([a-zA-Z \-]+?) ?</span>`)
)

// ExtractStaffTable decodes the staff listing fragment. The envelope
// content embeds an HTML table too irregular to parse as a whole document,
// so extraction narrows the fragment to its <tbody> span by string search
// first, parses only that, and pattern-matches each row element.
func ExtractStaffTable(fragment string) (StaffTable, error) {
	begin := strings.Index(fragment, "<tbody>")
	end := strings.Index(fragment, "</tbody>")
	if begin < 0 || end < 0 {
		return StaffTable{}, fmt.Errorf("no tbody span in staff table fragment")
	}
	fragment = fragment[begin : end+len("</tbody>")]

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Table,
		Data:     "table",
	})
	if err != nil {
		return StaffTable{}, err
	}

	var table StaffTable
	for _, node := range nodes {
		if node.Type != html.ElementNode || node.DataAtom != atom.Tbody {
			continue
		}
		for _, row := range htmlutil.ElementChildren(node) {
			markup := htmlutil.Render(row)

			roomGroups := roomRegex.FindStringSubmatch(markup)
			staffGroups := staffRegex.FindStringSubmatch(markup)
			if len(roomGroups) < 2 || len(staffGroups) < 3 {
				table.Malformed = append(table.Malformed, markup)
				continue
			}

			table.Records = append(table.Records, StaffRecord{
				Name:    htmlutil.CollapseSpace(staffGroups[2]),
				StaffId: staffGroups[1],
				Room:    roomGroups[1],
			})
		}
	}
	return table, nil
}
