package renewal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"weeklyplanner-auto/lib/restyutil"
	"weeklyplanner-auto/lib/telemetry"
	"weeklyplanner-auto/lib/testutil"
	"weeklyplanner-auto/lib/weeklyplanner"

	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type recordingNotifier struct {
	mu        sync.Mutex
	Infos     []string
	Errors    []string
	Documents []string
}

func (n *recordingNotifier) Info(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, message)
}

func (n *recordingNotifier) Error(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, message)
}

func (n *recordingNotifier) Document(ctx context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Documents = append(n.Documents, path)
}

type fixture struct {
	origin   *testutil.FakeOrigin
	service  Service
	creds    weeklyplanner.Credentials
	notifier *recordingNotifier
	dumpDir  string
}

// monday is the fixed "today" for all window tests: 2024-03-11, whose
// week starts on Sunday 2024-03-10.
var monday = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:services/renewal")
	t.Cleanup(cleanup)

	ctx := context.Background()
	origin := testutil.NewFakeOrigin(t)
	dumpDir := t.TempDir()

	session, err := weeklyplanner.NewSession(ctx, weeklyplanner.SessionOptions{
		BaseUrl: origin.Server.URL,
		Dumps:   restyutil.NewFilesystemOutput(dumpDir),
	})
	require.NoError(t, err)
	creds, err := session.Login(ctx, origin.Username, origin.Password)
	require.NoError(t, err)

	origin.Week["current"] = testutil.WeekContent(
		testutil.PlanCell("2024-03-11", "plan-day plan today", "Y"),
	)
	origin.Staff["2024-03-11"] = testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
	)

	notifier := &recordingNotifier{}
	service := NewService(session, notifier, fixedClock{now: monday}, restyutil.NewFilesystemOutput(dumpDir))
	return &fixture{
		origin:   origin,
		service:  service,
		creds:    creds,
		notifier: notifier,
		dumpDir:  dumpDir,
	}, ctx
}

func mondayWeek(candidate Candidate) Week {
	var week Week
	week[time.Monday] = &DayPlan{
		SelectionCandidate: candidate,
		Plan:               "Checked in",
	}
	return week
}

func outcomeFor(t *testing.T, outcomes []DayOutcome, date string) DayOutcome {
	t.Helper()
	for _, outcome := range outcomes {
		if outcome.Date.Format("2006-01-02") == date {
			return outcome
		}
	}
	t.Fatalf("no outcome recorded for %s", date)
	return DayOutcome{}
}

func TestRunSubmitsOpenMonday(t *testing.T) {
	f, ctx := setup(t)

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 14)

	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-11").Kind)
	// second monday is not in the availability window
	require.Equal(t, OutcomeSkipped, outcomeFor(t, result.Outcomes, "2024-03-18").Kind)
	require.Equal(t, "already assigned", outcomeFor(t, result.Outcomes, "2024-03-18").Reason)
	// weekdays without schedule data are skipped up front
	require.Equal(t, "no data", outcomeFor(t, result.Outcomes, "2024-03-10").Reason)

	calls := f.origin.SubmitCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "55", calls[0].Get("staff_num"))
	require.Equal(t, "2024-03-11", calls[0].Get("plandate"))
	require.Equal(t, "Checked in", calls[0].Get("plan"))

	// logout exactly once, at run end
	require.Equal(t, 1, f.origin.LogoutCalls())

	// nothing was reported malformed
	_, statErr := os.Stat(filepath.Join(f.dumpDir, malformedReportFile))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunSkipsPastDays(t *testing.T) {
	f, ctx := setup(t)

	var week Week
	// sunday of the current week is already behind monday's ordinal day
	week[time.Sunday] = &DayPlan{SelectionCandidate: Candidate{Room: "204"}, Plan: "Checked in"}

	result, err := f.service.Run(ctx, f.creds, week, Options{})
	require.NoError(t, err)

	require.Equal(t, "already past", outcomeFor(t, result.Outcomes, "2024-03-10").Reason)
	// the next week's sunday is ahead and stays in play
	require.Equal(t, "already assigned", outcomeFor(t, result.Outcomes, "2024-03-17").Reason)
}

func TestRunSameDayIsNotPast(t *testing.T) {
	f, ctx := setup(t)

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-11").Kind)
}

func TestRunDuplicateRoomsLastMatchWins(t *testing.T) {
	f, ctx := setup(t)

	f.origin.Staff["2024-03-11"] = testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
		testutil.StaffRow("77", "A Smith", "204"),
	)

	_, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)

	calls := f.origin.SubmitCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "77", calls[0].Get("staff_num"))
}

func TestRunTeacherNameSubstring(t *testing.T) {
	f, ctx := setup(t)

	f.origin.Staff["2024-03-11"] = testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
		testutil.StaffRow("77", "A Smith", "113B"),
	)

	_, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Teacher: "Doe"}), Options{})
	require.NoError(t, err)

	calls := f.origin.SubmitCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "55", calls[0].Get("staff_num"))
}

func TestRunNoCandidateMatch(t *testing.T) {
	f, ctx := setup(t)

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "999"}), Options{})
	require.NoError(t, err)

	require.Equal(t, "no candidate found", outcomeFor(t, result.Outcomes, "2024-03-11").Reason)
	require.Empty(t, f.origin.SubmitCalls())
	require.Equal(t, 1, f.origin.LogoutCalls())
}

func TestRunMissingCandidateConfigAborts(t *testing.T) {
	f, ctx := setup(t)

	_, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{}), Options{})
	require.ErrorIs(t, err, ErrNoCandidate)
	require.Empty(t, f.origin.SubmitCalls())
	// logout still runs on abort
	require.Equal(t, 1, f.origin.LogoutCalls())
}

func TestRunSkipsWhenFull(t *testing.T) {
	f, ctx := setup(t)

	f.origin.Capacity["55"] = `0`

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)

	require.Equal(t, "full", outcomeFor(t, result.Outcomes, "2024-03-11").Reason)
	require.Empty(t, f.origin.SubmitCalls())
}

func TestRunRecordsRejection(t *testing.T) {
	f, ctx := setup(t)

	f.origin.SubmitCode = "0"
	f.origin.SubmitMsg = "Plan date is locked"

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)

	outcome := outcomeFor(t, result.Outcomes, "2024-03-11")
	require.Equal(t, OutcomeRejected, outcome.Kind)
	require.Equal(t, "Plan date is locked", outcome.Reason)
}

func TestRunOverride(t *testing.T) {
	f, ctx := setup(t)

	// nothing is open according to the window
	f.origin.Week["current"] = testutil.WeekContent()
	f.origin.Staff["2024-03-18"] = testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
	)

	// without the override the monday is treated as already assigned
	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)
	require.Equal(t, "already assigned", outcomeFor(t, result.Outcomes, "2024-03-11").Reason)
	require.Equal(t, 0, f.origin.CapacityCalls())
	require.Empty(t, f.origin.SubmitCalls())

	// with it, both mondays submit
	result, err = f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{Force: true})
	require.NoError(t, err)
	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-11").Kind)
	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-18").Kind)
	require.Len(t, f.origin.SubmitCalls(), 2)
}

func TestRunConfinesDayErrors(t *testing.T) {
	f, ctx := setup(t)

	var week Week
	week[time.Monday] = &DayPlan{SelectionCandidate: Candidate{Room: "204"}, Plan: "Checked in"}
	week[time.Tuesday] = &DayPlan{SelectionCandidate: Candidate{Room: "204"}, Plan: "Checked in"}

	f.origin.Week["current"] = testutil.WeekContent(
		testutil.PlanCell("2024-03-11", "plan-day plan today", "Y"),
		testutil.PlanCell("2024-03-12", "plan-day plan", "Y"),
	)
	// the tuesday staff endpoint answers garbage without a tbody
	f.origin.Staff["2024-03-12"] = "<div>internal error</div>"

	result, err := f.service.Run(ctx, f.creds, week, Options{})
	require.NoError(t, err)

	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-11").Kind)
	tuesday := outcomeFor(t, result.Outcomes, "2024-03-12")
	require.Equal(t, OutcomeErrored, tuesday.Kind)
	require.Error(t, tuesday.Err)
	require.NotEmpty(t, f.notifier.Errors)
	require.Equal(t, 1, f.origin.LogoutCalls())
}

func TestRunWritesMalformedReport(t *testing.T) {
	f, ctx := setup(t)

	f.origin.Staff["2024-03-11"] = testutil.StaffContent(
		"<tr><td>half a row</td></tr>",
		testutil.StaffRow("55", "J Doe", "204"),
	)

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{})
	require.NoError(t, err)
	require.Equal(t, OutcomeSubmitted, outcomeFor(t, result.Outcomes, "2024-03-11").Kind)

	report, readErr := os.ReadFile(filepath.Join(f.dumpDir, malformedReportFile))
	require.NoError(t, readErr)
	require.Contains(t, string(report), "half a row")
	require.Contains(t, f.notifier.Documents, filepath.Join(f.dumpDir, malformedReportFile))
}

func TestRunListTeachers(t *testing.T) {
	f, ctx := setup(t)

	f.origin.Staff["2024-03-11"] = testutil.StaffContent(
		testutil.StaffRow("55", "J Doe", "204"),
		testutil.StaffRow("77", "A Smith", "113B"),
	)

	result, err := f.service.Run(ctx, f.creds, mondayWeek(Candidate{Room: "204"}), Options{ListTeachers: true})
	require.NoError(t, err)

	require.Len(t, result.Staff, 2)
	require.Equal(t, "2024-03-11", result.StaffDate.Format("2006-01-02"))
	// diagnostic mode never mutates and stops the window early
	require.Empty(t, f.origin.SubmitCalls())
	require.Equal(t, 0, f.origin.CapacityCalls())
	require.Equal(t, 1, f.origin.LogoutCalls())
}
