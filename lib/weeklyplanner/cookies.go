package weeklyplanner

import (
	"strings"
)

// Jar is a flat cookie store for the planner origin. The server scopes
// nothing by path and re-issues its session cookies on most responses, so
// the jar keeps a single name to value map for the life of the session.
// Later values overwrite earlier ones, there is no expiry tracking.
type Jar struct {
	values map[string]string
}

func NewJar() *Jar {
	return &Jar{values: map[string]string{}}
}

// cookie attributes that must never be stored as cookies themselves
var cookieAttributes = map[string]bool{
	"path":    true,
	"expires": true,
	"max-age": true,
}

// Merge folds raw Set-Cookie header values into the jar. Each header is
// split on ";", each segment on its first "=". Attribute segments are
// dropped, everything else is stored with overwrite semantics.
func (j *Jar) Merge(setCookies []string) {
	for _, raw := range setCookies {
		for _, segment := range strings.Split(raw, ";") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			name, value, _ := strings.Cut(segment, "=")
			if cookieAttributes[strings.ToLower(name)] {
				continue
			}
			j.values[name] = value
		}
	}
}

// HeaderValue renders the jar as a Cookie header value. Entry order is not
// meaningful to the server.
func (j *Jar) HeaderValue() string {
	var out strings.Builder
	for name, value := range j.values {
		out.WriteString(name)
		out.WriteByte('=')
		out.WriteString(value)
		out.WriteByte(';')
	}
	return out.String()
}

// Get returns the stored value for a cookie name.
func (j *Jar) Get(name string) (string, bool) {
	value, ok := j.values[name]
	return value, ok
}
