package routeguard

import (
	"net/url"
	"strings"
)

// Request is the part of an incoming navigation the guard looks at
type Request struct {
	Path  string
	Query url.Values
}

// Rules lists the guarded path prefixes and where to send rejected users
type Rules struct {
	Protected        []string
	AuthOnly         []string
	SignInPath       string
	LandingPath      string
	RedirectQueryKey string
}

// DefaultRules protects /dashboard and keeps signed in users away from the
// login and signup pages
func DefaultRules() Rules {
	return Rules{
		Protected:        []string{"/dashboard"},
		AuthOnly:         []string{"/login", "/signup"},
		SignInPath:       "/login",
		LandingPath:      "/dashboard",
		RedirectQueryKey: "redirectedFrom",
	}
}

func (r Rules) withDefaults() Rules {
	def := DefaultRules()
	if r.Protected == nil {
		r.Protected = def.Protected
	}
	if r.AuthOnly == nil {
		r.AuthOnly = def.AuthOnly
	}
	if r.SignInPath == "" {
		r.SignInPath = def.SignInPath
	}
	if r.LandingPath == "" {
		r.LandingPath = def.LandingPath
	}
	if r.RedirectQueryKey == "" {
		r.RedirectQueryKey = def.RedirectQueryKey
	}
	return r
}

// Action is what the guard wants done with a request
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the guard outcome. Location is only set for Redirect.
type Decision struct {
	Action   Action
	Location string
}

// Decide routes a request. It has no side effects.
func Decide(req Request, hasSession bool, rules Rules) Decision {
	rules = rules.withDefaults()
	path := cleanPath(req.Path)

	if !hasSession && matchesAny(path, rules.Protected) {
		from := path
		if len(req.Query) > 0 {
			from += "?" + req.Query.Encode()
		}
		q := url.Values{}
		q.Set(rules.RedirectQueryKey, from)
		return Decision{Action: Redirect, Location: rules.SignInPath + "?" + q.Encode()}
	}

	if hasSession && matchesAny(path, rules.AuthOnly) {
		return Decision{Action: Redirect, Location: rules.LandingPath}
	}

	return Decision{Action: Allow}
}

// ReturnTarget picks where to go after login. Only same site absolute paths
// are honoured, anything else yields fallback.
func ReturnTarget(redirectedFrom, fallback string) string {
	target := strings.TrimSpace(redirectedFrom)
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = cleanPath(p)
		if p == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
