package weeklyplanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AvailableDates returns the calendar dates in the current and next week
// windows that are still open for submission: editable by the student and
// not yet marked complete. Dates are keyed as YYYY-MM-DD strings, the union
// of both windows collapses duplicates naturally.
func (s *Session) AvailableDates(ctx context.Context, creds Credentials) (map[string]bool, error) {
	ctx, span := tracer.Start(ctx, "session:AvailableDates")
	defer span.End()

	dates := map[string]bool{}
	for _, week := range []string{"current", "nextweek"} {
		err := s.loadWeek(ctx, creds, week, dates)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load week window")
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("open_dates", len(dates)))
	return dates, nil
}

func (s *Session) loadWeek(ctx context.Context, creds Credentials, week string, dates map[string]bool) error {
	ctx, span := tracer.Start(ctx, "session:loadWeek")
	defer span.End()
	span.SetAttributes(attribute.String("week", week))

	res, err := s.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"table_name":         "plandates",
			"action":             "load-week",
			"selected_week_flag": week,
			"selected_user":      creds.UserNum,
		}).
		Get("/ajax.DataTable.Fetch.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "week window fetch failed")
		return fmt.Errorf("%w: %v", ErrResolution, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected week window status")
		return s.statusError(ErrResolution, res, fmt.Sprintf("%s week fetch", week))
	}

	var envelope struct {
		Content *string `json:"content"`
	}
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil || envelope.Content == nil {
		span.SetStatus(codes.Error, "no content field in week window response")
		return fmt.Errorf("%w: no content field in %s week response", ErrResolution, week)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(*envelope.Content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse week window cells")
		return fmt.Errorf("%w: %v", ErrResolution, err)
	}

	doc.Find("td[celldate]").Each(func(_ int, cell *goquery.Selection) {
		flags := strings.Fields(cell.AttrOr("class", ""))
		if slices.Contains(flags, "datePlanComplete") {
			return
		}
		if cell.AttrOr("editable", "") != "Y" {
			return
		}
		date := cell.AttrOr("celldate", "")
		if date != "" {
			dates[date] = true
		}
	})
	return nil
}
