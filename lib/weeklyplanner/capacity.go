package weeklyplanner

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weeklyplanner-auto/lib/chrono"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HasCapacity reports whether the staff member has open slots remaining on
// date. The endpoint reports availability as either a JSON number or a
// numeric string; anything that fails numeric coercion counts as zero
// rather than an error.
func (s *Session) HasCapacity(ctx context.Context, staffId string, date time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "session:HasCapacity")
	defer span.End()
	span.SetAttributes(
		attribute.String("staff_num", staffId),
		attribute.String("date", chrono.ISODate(date)),
	)

	res, err := s.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"block_num": "1",
			"plandate":  chrono.ISODate(date),
			"staff_num": staffId,
		}).
		Get("/ajax.checkStaffCapacity.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capacity check failed")
		return false, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected capacity check status")
		return false, s.statusError(nil, res, "capacity check")
	}

	var payload struct {
		Available json.RawMessage `json:"available"`
	}
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode capacity response")
		return false, err
	}

	available := coerceNumber(payload.Available)
	span.SetAttributes(attribute.Float64("available", available))
	return available > 0, nil
}

// coerceNumber converts a JSON scalar to a float, treating anything
// non-numeric as zero.
func coerceNumber(raw json.RawMessage) float64 {
	var number float64
	if json.Unmarshal(raw, &number) == nil {
		return number
	}
	var str string
	if json.Unmarshal(raw, &str) != nil {
		return 0
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0
	}
	return number
}
