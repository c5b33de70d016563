// Package remote models git remote URLs as scheme-independent identities.
//
// A remote is identified by its hostname, organization and repository name. The
// same identity can be rendered in any supported scheme, which lets a whole
// workspace switch between SSH and HTTPS remotes without losing track of which
// checkout belongs to which repository.
package remote

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grovetools/ras/errors"
)

// Scheme is the addressing convention of a git remote.
type Scheme string

const (
	SchemeSSH   Scheme = "ssh"
	SchemeHTTPS Scheme = "https"
)

// Schemes lists the supported schemes in the order Parse tries them.
var Schemes = []Scheme{SchemeSSH, SchemeHTTPS}

var templates = map[Scheme]string{
	SchemeSSH:   "git@{hostname}:{org}/{repo}.git",
	SchemeHTTPS: "https://{hostname}/{org}/{repo}",
}

var placeholderPatterns = map[string]string{
	"hostname": `(?P<hostname>[^/:@\s]+)`,
	"org":      `(?P<org>[^:@\s]+)`,
	"repo":     `(?P<repo>[^/:@\s]+?)`,
}

var matchers = compileMatchers()

// Template returns the URL template of the scheme.
func (s Scheme) Template() string {
	return templates[s]
}

// Valid reports whether s is a supported scheme.
func (s Scheme) Valid() bool {
	_, ok := templates[s]
	return ok
}

// ParseScheme converts a user supplied scheme name.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown url mode %q (expected one of: ssh, https)", name)).
			WithDetail("mode", name)
	}
	return s, nil
}

// URL is a parsed git remote.
type URL struct {
	Scheme   Scheme
	Hostname string
	Org      string
	Repo     string
}

// Parse decomposes url using the first scheme template it structurally matches.
// A trailing ".git" or "/" is accepted under either scheme and dropped, so
// rendering the result yields the canonical template form, not url itself.
func Parse(url string) (URL, error) {
	trimmed := strings.TrimSpace(url)
	for _, s := range Schemes {
		m := matchers[s].FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		u := URL{Scheme: s}
		for i, name := range matchers[s].SubexpNames() {
			switch name {
			case "hostname":
				u.Hostname = m[i]
			case "org":
				u.Org = m[i]
			case "repo":
				u.Repo = strings.TrimSuffix(m[i], ".git")
			}
		}
		if u.Repo == "" {
			continue
		}
		return u, nil
	}
	return URL{}, errors.NoMatchingScheme(url)
}

// Render fills the template of scheme s with the identity of u.
func (u URL) Render(s Scheme) string {
	r := strings.NewReplacer(
		"{hostname}", u.Hostname,
		"{org}", u.Org,
		"{repo}", u.Repo,
	)
	return r.Replace(templates[s])
}

// String renders u in its own scheme.
func (u URL) String() string {
	return u.Render(u.Scheme)
}

// SameRemote reports whether a and b address the same repository, ignoring scheme.
func SameRemote(a, b URL) bool {
	return strings.EqualFold(a.Hostname, b.Hostname) && a.Org == b.Org && a.Repo == b.Repo
}

// SameRemoteURL parses both URLs and compares their identity.
// Unparseable URLs are never the same remote.
func SameRemoteURL(a, b string) bool {
	ua, err := Parse(a)
	if err != nil {
		return false
	}
	ub, err := Parse(b)
	if err != nil {
		return false
	}
	return SameRemote(ua, ub)
}

// Reform renders url in scheme s.
func Reform(url string, s Scheme) (string, error) {
	u, err := Parse(url)
	if err != nil {
		return "", err
	}
	return u.Render(s), nil
}

// SchemeOf returns the scheme url is written in.
func SchemeOf(url string) (Scheme, error) {
	u, err := Parse(url)
	if err != nil {
		return "", err
	}
	return u.Scheme, nil
}

// compileMatchers turns every template into an anchored regular expression.
// A trailing ".git" and "/" are tolerated whether or not the template has one.
func compileMatchers() map[Scheme]*regexp.Regexp {
	out := make(map[Scheme]*regexp.Regexp, len(templates))
	for s, tmpl := range templates {
		pattern := regexp.QuoteMeta(strings.TrimSuffix(tmpl, ".git"))
		for name, sub := range placeholderPatterns {
			pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta("{"+name+"}"), sub)
		}
		out[s] = regexp.MustCompile("^" + pattern + `(?:\.git)?/?$`)
	}
	return out
}
