package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const (
	CsrfToken = "tok-fake-1234"
	UserNum   = "4242"
	sessionId = "deadbeef"
)

// FakeOrigin imitates the planner web application for tests: the
// cookie/CSRF bootstrap page, the form login exchange and the ajax
// endpoints. All ajax endpoints reject requests missing the CSRF token
// header or the session cookie.
type FakeOrigin struct {
	Server *httptest.Server

	Username string
	Password string
	// landing page override, "" means the default page
	LandingHtml string
	// selected_date -> staff table content html
	Staff map[string]string
	// week flag ("current"/"nextweek") -> plandates content html
	Week map[string]string
	// staff_num -> raw JSON for the available field, default 2
	Capacity map[string]string
	// raw JSON for ajax_return_code, default 1
	SubmitCode string
	SubmitMsg  string

	mu            sync.Mutex
	logoutCalls   int
	capacityCalls int
	submitCalls   []url.Values
}

func NewFakeOrigin(t testing.TB) *FakeOrigin {
	o := &FakeOrigin{
		Username:   "student",
		Password:   "hunter2",
		Staff:      map[string]string{},
		Week:       map[string]string{},
		Capacity:   map[string]string{},
		SubmitCode: "1",
	}
	o.Server = httptest.NewServer(http.HandlerFunc(o.handle))
	t.Cleanup(o.Server.Close)
	return o
}

func (o *FakeOrigin) LogoutCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.logoutCalls
}

func (o *FakeOrigin) CapacityCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.capacityCalls
}

func (o *FakeOrigin) SubmitCalls() []url.Values {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitCalls
}

func (o *FakeOrigin) authed(r *http.Request) bool {
	cookie, err := r.Cookie("PHPSESSID")
	return err == nil && cookie.Value == sessionId
}

func (o *FakeOrigin) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		o.handleRoot(w, r)
	case "/ajax.DataTable.Fetch.php":
		o.handleDataTable(w, r)
	case "/ajax.checkStaffCapacity.php":
		o.handleCapacity(w, r)
	case "/ajax.savePlan.php":
		o.handleSavePlan(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (o *FakeOrigin) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.FormValue("action") == "login" {
		if r.FormValue("login_user_name") != o.Username ||
			r.FormValue("login_password") != o.Password {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "<html><body>Invalid credentials</body></html>")
			return
		}
		w.Header().Add("Set-Cookie", fmt.Sprintf("PHPSESSID=%s; path=/; max-age=3600", sessionId))
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
		return
	}

	if r.URL.Query().Get("action") == "logout" {
		o.mu.Lock()
		o.logoutCalls++
		o.mu.Unlock()
		fmt.Fprint(w, "<html><body>Bye</body></html>")
		return
	}

	if o.LandingHtml != "" {
		fmt.Fprint(w, o.LandingHtml)
		return
	}

	w.Header().Add("Set-Cookie", "planner_lang=en; path=/")
	page := fmt.Sprintf(`<html><head><script>
$.ajaxSetup({ headers: { 'X-CSRF-TOKEN': '%s' } });
</script></head><body>`, CsrfToken)
	if o.authed(r) {
		page += fmt.Sprintf("<input type='hidden' name='user_num' id='user_num' value='%s' />", UserNum)
	}
	page += "</body></html>"
	fmt.Fprint(w, page)
}

// guard enforces the session cookie and the anti-forgery header on the
// ajax endpoints.
func (o *FakeOrigin) guard(w http.ResponseWriter, r *http.Request) bool {
	if !o.authed(r) || r.Header.Get("X-CSRF-TOKEN") != CsrfToken {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "Forbidden")
		return false
	}
	return true
}

func writeContent(w http.ResponseWriter, html string) {
	payload, _ := json.Marshal(map[string]string{"content": html})
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func (o *FakeOrigin) handleDataTable(w http.ResponseWriter, r *http.Request) {
	if !o.guard(w, r) {
		return
	}
	query := r.URL.Query()
	switch query.Get("table_name") {
	case "staff":
		writeContent(w, o.Staff[query.Get("selected_date")])
	case "plandates":
		writeContent(w, o.Week[query.Get("selected_week_flag")])
	default:
		http.NotFound(w, r)
	}
}

func (o *FakeOrigin) handleCapacity(w http.ResponseWriter, r *http.Request) {
	if !o.guard(w, r) {
		return
	}
	o.mu.Lock()
	o.capacityCalls++
	o.mu.Unlock()

	available, ok := o.Capacity[r.URL.Query().Get("staff_num")]
	if !ok {
		available = "2"
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"available": %s}`, available)
}

func (o *FakeOrigin) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	if !o.guard(w, r) {
		return
	}
	o.mu.Lock()
	o.submitCalls = append(o.submitCalls, r.URL.Query())
	o.mu.Unlock()

	message, _ := json.Marshal(o.SubmitMsg)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"ajax_return_code": %s, "ajax_message": %s}`, o.SubmitCode, message)
}

// StaffRow renders one well-formed staff table row the way the live
// system quotes it.
func StaffRow(staffId, name, room string) string {
	return fmt.Sprintf("<tr><td><span id='name%s'> %s </span><br /> -- %s</td></tr>", staffId, name, room)
}

// StaffContent wraps rows in the envelope markup surrounding the staff
// table's tbody.
func StaffContent(rows ...string) string {
	return "<div class='scroller'><table border=1><thead><tr><th>Staff</th></tr></thead><tbody>" +
		strings.Join(rows, "\n") + "</tbody></table></div>"
}

// PlanCell renders one plandates cell.
func PlanCell(date, flags, editable string) string {
	return fmt.Sprintf(`<td class="%s" editable="%s" celldate="%s"></td>`, flags, editable, date)
}

// WeekContent wraps plandates cells in their table markup.
func WeekContent(cells ...string) string {
	return "<table><tr>" + strings.Join(cells, "") + "</tr></table>"
}
