package renewal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weeklyplanner-auto/lib/chrono"
	"weeklyplanner-auto/lib/notify"
	"weeklyplanner-auto/lib/telemetry"
	"weeklyplanner-auto/lib/weeklyplanner"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("weeklyplanner-auto.services.renewal")

// Candidate selects the staff member to submit against. Room takes
// priority and matches exactly; teacher matches by substring on the
// display name.
type Candidate struct {
	Room    string `json:"room"`
	Teacher string `json:"teacher"`
}

// DayPlan is the externally supplied plan for one weekday.
type DayPlan struct {
	SelectionCandidate Candidate `json:"selection_candidate"`
	Plan               string    `json:"plan"`
}

// Week is the per-weekday schedule, indexed Sunday first. A nil entry
// means no work that weekday.
type Week [7]*DayPlan

type OutcomeKind string

const (
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeSubmitted OutcomeKind = "submitted"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeErrored   OutcomeKind = "errored"
)

// DayOutcome records what happened to one date in the window.
type DayOutcome struct {
	Date time.Time
	Kind OutcomeKind
	// skip or rejection reason
	Reason string
	Err    error
}

type Options struct {
	// Force submits even on dates the availability window marks as
	// already assigned.
	Force bool
	// ListTeachers reports the staff listing for the first actionable
	// date and stops without submitting anything.
	ListTeachers bool
}

type Result struct {
	Outcomes []DayOutcome
	// staff listing fetched in list-teachers mode, nil otherwise
	Staff     []weeklyplanner.StaffRecord
	StaffDate time.Time
}

// ErrNoCandidate reports a schedule entry with neither a room nor a
// teacher to select by. Caller misconfiguration, not a transient
// condition: the run aborts.
var ErrNoCandidate = errors.New("schedule entry has no selection candidate")

const windowDays = 14

type Service struct {
	session  *weeklyplanner.Session
	notifier notify.Notifier
	clock    chrono.Clock
	dumps    weeklyplanner.DumpSink
}

func NewService(session *weeklyplanner.Session, notifier notify.Notifier, clock chrono.Clock, dumps weeklyplanner.DumpSink) Service {
	return Service{
		session:  session,
		notifier: notifier,
		clock:    clock,
		dumps:    dumps,
	}
}

// Run processes the rolling two-week window: resolve the open dates once,
// then per day apply the skip rules, resolve a staff candidate, gate on
// capacity and submit. Failures inside a day are confined to that day; the
// session is logged out whatever happens.
func (s Service) Run(ctx context.Context, creds weeklyplanner.Credentials, week Week, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "renewal:Run")
	defer span.End()

	defer s.session.Logout(ctx)

	s.notifier.Info(ctx, "begin renewal run")

	available, err := s.session.AvailableDates(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability resolution failed")
		s.reportFailure(ctx, "availability resolution failed", err)
		return Result{}, err
	}

	today := s.clock.Now()
	weekStart := chrono.WeekStart(today)

	var result Result
	for i := 0; i < windowDays; i++ {
		date := chrono.AddDays(weekStart, i)

		entry := week[i%7]
		if entry == nil {
			result.Outcomes = append(result.Outcomes, s.skip(ctx, date, "no data"))
			continue
		}
		// a date whose ordinal day precedes today's is gone; the same
		// day is still actionable
		if chrono.DayOfYear(date) < chrono.DayOfYear(today) {
			result.Outcomes = append(result.Outcomes, s.skip(ctx, date, "already past"))
			continue
		}
		if !opts.Force && !available[chrono.ISODate(date)] {
			result.Outcomes = append(result.Outcomes, s.skip(ctx, date, "already assigned"))
			continue
		}

		outcome, staff, listed, err := s.processDay(ctx, creds, date, entry, opts)
		if listed {
			result.Staff = staff
			result.StaffDate = date
			break
		}
		if err != nil {
			if errors.Is(err, ErrNoCandidate) {
				span.SetStatus(codes.Error, ErrNoCandidate.Error())
				s.reportFailure(ctx, "aborting run", err)
				return result, err
			}
			s.reportFailure(ctx, fmt.Sprintf("failed to process %s", chrono.ISODate(date)), err)
			result.Outcomes = append(result.Outcomes, DayOutcome{
				Date: date,
				Kind: OutcomeErrored,
				Err:  err,
			})
			continue
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.notifier.Info(ctx, summarize(result.Outcomes))
	return result, nil
}

func (s Service) processDay(ctx context.Context, creds weeklyplanner.Credentials, date time.Time, entry *DayPlan, opts Options) (DayOutcome, []weeklyplanner.StaffRecord, bool, error) {
	ctx, span := tracer.Start(ctx, "renewal:processDay")
	defer span.End()
	span.SetAttributes(attribute.String("date", chrono.ISODate(date)))

	table, err := s.session.FetchStaffTable(ctx, creds, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "staff table fetch failed")
		return DayOutcome{}, nil, false, err
	}
	if len(table.Malformed) > 0 {
		s.reportMalformed(ctx, table.Malformed)
	}

	if opts.ListTeachers {
		for _, record := range table.Records {
			s.notifier.Info(ctx, fmt.Sprintf("%s (id %s) at %s", record.Name, record.StaffId, record.Room))
		}
		return DayOutcome{}, table.Records, true, nil
	}

	candidate := entry.SelectionCandidate
	if candidate.Room == "" && candidate.Teacher == "" {
		return DayOutcome{}, nil, false, fmt.Errorf("%w for %s", ErrNoCandidate, date.Weekday())
	}

	staffId, found := resolveCandidate(table.Records, candidate)
	if !found {
		return s.skip(ctx, date, "no candidate found"), nil, false, nil
	}
	span.SetAttributes(attribute.String("staff_num", staffId))

	hasCapacity, err := s.session.HasCapacity(ctx, staffId, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capacity check failed")
		return DayOutcome{}, nil, false, err
	}
	if !hasCapacity {
		return s.skip(ctx, date, "full"), nil, false, nil
	}

	outcome, err := s.session.SubmitPlan(ctx, staffId, creds, entry.Plan, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan submission failed")
		return DayOutcome{}, nil, false, err
	}
	if !outcome.Accepted {
		span.SetStatus(codes.Error, "plan submission rejected")
		s.notifier.Info(ctx, fmt.Sprintf("skipping %s, server rejected: %s", chrono.ISODate(date), outcome.Reason))
		return DayOutcome{Date: date, Kind: OutcomeRejected, Reason: outcome.Reason}, nil, false, nil
	}

	s.notifier.Info(ctx, "submitted plan for "+chrono.ISODate(date))
	return DayOutcome{Date: date, Kind: OutcomeSubmitted}, nil, false, nil
}

// resolveCandidate returns the staff id matching the candidate. When
// several rows match, the last one in table order wins; the scraped table
// is known to contain duplicate rooms and the tie-break must stay
// reproducible.
func resolveCandidate(records []weeklyplanner.StaffRecord, candidate Candidate) (string, bool) {
	staffId := ""
	if candidate.Room != "" {
		for _, record := range records {
			if record.Room == candidate.Room {
				staffId = record.StaffId
			}
		}
	} else if candidate.Teacher != "" {
		for _, record := range records {
			if strings.Contains(record.Name, candidate.Teacher) {
				staffId = record.StaffId
			}
		}
	}
	return staffId, staffId != ""
}

func (s Service) skip(ctx context.Context, date time.Time, reason string) DayOutcome {
	s.notifier.Info(ctx, fmt.Sprintf("skipping %s: %s", chrono.ISODate(date), reason))
	return DayOutcome{Date: date, Kind: OutcomeSkipped, Reason: reason}
}

func (s Service) reportFailure(ctx context.Context, message string, err error) {
	s.notifier.Error(ctx, message+": "+err.Error())

	var statusErr *weeklyplanner.StatusError
	if errors.As(err, &statusErr) && statusErr.DumpFile != "" {
		s.notifier.Document(ctx, statusErr.DumpFile)
	}
}

const malformedReportFile = "table_process_error.report.txt"

func (s Service) reportMalformed(ctx context.Context, rows []string) {
	s.notifier.Error(ctx, fmt.Sprintf("failed to fully decode the staff table, %d malformed rows recorded", len(rows)))
	if s.dumps == nil {
		return
	}

	var report strings.Builder
	for _, row := range rows {
		report.WriteString(row)
		report.WriteString("\n==========================\n")
	}
	path := s.dumps.Write(malformedReportFile, report.String())
	if path != "" {
		s.notifier.Document(ctx, path)
	}
}

func summarize(outcomes []DayOutcome) string {
	counts := map[OutcomeKind]int{}
	for _, outcome := range outcomes {
		counts[outcome.Kind]++
	}
	return fmt.Sprintf(
		"renewal run done: %d submitted, %d skipped, %d rejected, %d errored",
		counts[OutcomeSubmitted],
		counts[OutcomeSkipped],
		counts[OutcomeRejected],
		counts[OutcomeErrored],
	)
}
