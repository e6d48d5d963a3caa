package weeklyplanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"go.opentelemetry.io/otel/codes"
)

// Credentials identifies the authenticated planner user. Fixed once login
// succeeds, valid for the life of the session.
type Credentials struct {
	UserNum string
}

var userNumRegex = regexp.MustCompile(`<input ?type=['"]hidden['"] ?name=['"]user_num['"] ?id=['"]user_num['"] ?value=['"]([0-9]+)['"] ?/?>`)

// Login performs the credential exchange against the root path. A
// successful POST answers with a redirect; the follow-up GET mirrors the
// browser landing on the dashboard, which carries the numeric user id in a
// hidden input. Any deviation on either step is fatal, nothing useful can
// happen unauthenticated.
func (s *Session) Login(ctx context.Context, username, password string) (Credentials, error) {
	ctx, span := tracer.Start(ctx, "session:Login")
	defer span.End()

	restore := s.holdRedirects()
	res, err := s.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"login_user_name": username,
			"login_password":  password,
			"login-submit":    "Login",
			"action":          "login",
		}).
		Post("/")
	restore()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login post failed")
		return Credentials{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if res.StatusCode() < 300 || res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "login post did not redirect")
		return Credentials{}, s.statusError(ErrAuth, res, "login post")
	}

	res, err = s.Http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login landing fetch failed")
		return Credentials{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected login landing status")
		return Credentials{}, s.statusError(ErrAuth, res, "login landing")
	}

	groups := userNumRegex.FindStringSubmatch(res.String())
	if len(groups) < 2 {
		span.SetStatus(codes.Error, "user_num not found")
		return Credentials{}, fmt.Errorf("%w: user_num hidden input not found after login", ErrAuth)
	}

	slog.InfoContext(ctx, "logged in", "user_num", groups[1])
	return Credentials{UserNum: groups[1]}, nil
}

// Logout ends the server session. Best effort: failures are logged, never
// returned, the process is exiting either way.
func (s *Session) Logout(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session:Logout")
	defer span.End()

	_, err := s.Http.R().
		SetContext(ctx).
		SetQueryParam("action", "logout").
		Get("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "logout request failed")
		slog.WarnContext(ctx, "logout request failed", "err", err)
	}
}
