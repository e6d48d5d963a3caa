package weeklyplanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"weeklyplanner-auto/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"

// Session is the single authenticated channel to a planner origin. It owns
// the cookie jar and the anti-forgery token negotiated at bootstrap and
// attaches both to every request made through it.
type Session struct {
	BaseUrl   *url.URL
	Http      *resty.Client
	Jar       *Jar
	CsrfToken string

	dumps DumpSink
}

type SessionOptions struct {
	BaseUrl string
	// Dumps may be nil, transcripts of failed requests are then discarded.
	Dumps DumpSink
}

// NewSession builds the HTTP channel and performs the bootstrap exchange:
// fetch the landing page, absorb its cookies and extract the anti-forgery
// token embedded in its script block. The token format is assumed stable
// within a run, a landing page without it fails the whole session.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	jar := NewJar()
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(time.Second * 30)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if header := jar.HeaderValue(); header != "" {
			req.SetHeader("Cookie", header)
		}
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		jar.Merge(res.Header().Values("Set-Cookie"))
		return nil
	})

	telemetry.InstrumentResty(client, "weeklyplanner/http")

	s := &Session{
		BaseUrl: baseUrl,
		Http:    client,
		Jar:     jar,
		dumps:   opts.Dumps,
	}
	err = s.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var csrfTokenRegex = regexp.MustCompile(`'X-CSRF-TOKEN': ?'(.+?)'`)

func (s *Session) bootstrap(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:bootstrap")
	defer span.End()

	res, err := s.Http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return fmt.Errorf("%w: %v", ErrBootstrap, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected landing page status")
		return s.statusError(ErrBootstrap, res, "landing page")
	}

	groups := csrfTokenRegex.FindStringSubmatch(res.String())
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "csrf token not found")
		return fmt.Errorf("%w: csrf token not found in landing page", ErrBootstrap)
	}
	s.CsrfToken = groups[1]
	s.Http.SetHeader("X-CSRF-TOKEN", s.CsrfToken)

	slog.InfoContext(ctx, "negotiated csrf token", "token", s.CsrfToken)
	return nil
}

// holdRedirects swaps in a redirect policy that surfaces 3xx responses to
// the caller instead of following them. The returned func restores the
// default policy.
func (s *Session) holdRedirects() func() {
	s.Http.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	))
	return func() {
		s.Http.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(s.BaseUrl.Hostname()))
	}
}
