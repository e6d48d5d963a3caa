package weeklyplanner

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"weeklyplanner-auto/lib/chrono"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SubmissionOutcome classifies the server's answer to a plan submission.
type SubmissionOutcome struct {
	Accepted bool
	// server-supplied rejection message, empty when accepted
	Reason string
}

// SubmitPlan submits plan text against a staff/date pair. The target
// system accepts mutating submissions over GET; the return code inside the
// JSON body, not the HTTP status, decides acceptance.
func (s *Session) SubmitPlan(ctx context.Context, staffId string, creds Credentials, plan string, date time.Time) (SubmissionOutcome, error) {
	ctx, span := tracer.Start(ctx, "session:SubmitPlan")
	defer span.End()
	span.SetAttributes(
		attribute.String("staff_num", staffId),
		attribute.String("date", chrono.ISODate(date)),
	)

	res, err := s.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"plan_title":          "",
			"plan":                plan,
			"record_num":          "0",
			"user_num":            creds.UserNum,
			"plandate":            chrono.ISODate(date),
			"block_num":           "1",
			"staff_num":           staffId,
			"plan_type":           "",
			"table_name":          "dailyplan",
			"editable_by_student": "Y",
			"function":            "",
		}).
		Get("/ajax.savePlan.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan submission failed")
		return SubmissionOutcome{}, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected plan submission status")
		return SubmissionOutcome{}, s.statusError(nil, res, "plan submission")
	}

	var payload struct {
		ReturnCode json.RawMessage `json:"ajax_return_code"`
		Message    string          `json:"ajax_message"`
	}
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode plan submission response")
		return SubmissionOutcome{}, err
	}

	if coerceNumber(payload.ReturnCode) == 1 {
		return SubmissionOutcome{Accepted: true}, nil
	}
	span.SetAttributes(attribute.String("rejection", payload.Message))
	return SubmissionOutcome{Accepted: false, Reason: payload.Message}, nil
}
