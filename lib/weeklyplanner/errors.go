package weeklyplanner

import (
	"errors"
	"fmt"
	"time"

	"weeklyplanner-auto/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

// The fatal error kinds. A run cannot do useful work past any of these, the
// caller is expected to abort on them.
var (
	ErrBootstrap  = errors.New("session bootstrap failed")
	ErrAuth       = errors.New("authentication failed")
	ErrResolution = errors.New("availability resolution failed")
)

// StatusError reports a response that failed a status expectation. The full
// HTTP transcript is written through the session's dump sink so it can be
// delivered externally; DumpFile is its path, empty when no sink is
// configured or the write failed.
type StatusError struct {
	Kind     error
	Status   int
	What     string
	DumpFile string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d on %s", e.Status, e.What)
	if e.Kind != nil {
		msg = fmt.Sprintf("%s: %s", e.Kind.Error(), msg)
	}
	if e.DumpFile != "" {
		msg = fmt.Sprintf("%s, transcript dumped to %s", msg, e.DumpFile)
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// DumpSink receives full HTTP transcripts of requests that failed a status
// expectation, keyed by a filename for external delivery. The returned
// value is the path of the written file, "" when nothing was written.
type DumpSink interface {
	Write(id string, contents string) string
}

var _ DumpSink = restyutil.FilesystemOutput{}

func (s *Session) statusError(kind error, res *resty.Response, what string) *StatusError {
	statusErr := &StatusError{
		Kind:   kind,
		Status: res.StatusCode(),
		What:   what,
	}
	if s.dumps != nil {
		id := fmt.Sprintf("%d.requestdump.txt", time.Now().UnixMilli())
		statusErr.DumpFile = s.dumps.Write(id, restyutil.FormatMessage(res))
	}
	return statusErr
}
