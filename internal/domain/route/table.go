package route

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Table is the immutable, compiled endpoint table. Build it once at startup
// with NewTable and share it by pointer.
type Table struct {
	entries []entry
	exact   map[string][]int
}

type entry struct {
	cfg    EndpointConfig
	re     *regexp.Regexp
	params []string
}

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var knownMethods = map[string]struct{}{
	http.MethodGet: {}, http.MethodPost: {}, http.MethodPut: {},
	http.MethodPatch: {}, http.MethodDelete: {}, http.MethodOptions: {},
}

// NewTable validates and compiles endpoints. Declaration order is preserved
// and is the tie-break between overlapping patterns.
func NewTable(endpoints []EndpointConfig) (*Table, error) {
	t := &Table{exact: make(map[string][]int)}
	names := make(map[string]struct{}, len(endpoints))
	shapes := make(map[string][]string)

	for i, ep := range endpoints {
		if ep.Name == "" {
			return nil, fmt.Errorf("endpoint %d: name is required", i)
		}
		if _, dup := names[ep.Name]; dup {
			return nil, fmt.Errorf("endpoint %q: duplicate name", ep.Name)
		}
		names[ep.Name] = struct{}{}

		e, err := compile(ep)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", ep.Name, err)
		}

		shape := shapeOf(e.cfg.Pattern)
		for _, m := range e.cfg.Methods {
			if slices.Contains(shapes[shape], m) {
				return nil, fmt.Errorf("endpoint %q: %s %s overlaps an earlier endpoint", ep.Name, m, ep.Pattern)
			}
		}
		shapes[shape] = append(shapes[shape], e.cfg.Methods...)

		t.entries = append(t.entries, e)
		if e.re == nil {
			t.exact[e.cfg.Pattern] = append(t.exact[e.cfg.Pattern], len(t.entries)-1)
		}
	}
	return t, nil
}

func compile(ep EndpointConfig) (entry, error) {
	if !strings.HasPrefix(ep.Pattern, "/") {
		return entry{}, errors.New("pattern must start with /")
	}
	if len(ep.Methods) == 0 {
		return entry{}, errors.New("at least one method is required")
	}
	methods := make([]string, 0, len(ep.Methods))
	for _, m := range ep.Methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if _, ok := knownMethods[m]; !ok {
			return entry{}, fmt.Errorf("unsupported method %q", m)
		}
		methods = append(methods, m)
	}
	if ep.Permission != "" && !ep.Permission.Valid() {
		return entry{}, fmt.Errorf("unknown permission %q", ep.Permission)
	}
	if ep.RateLimit != nil && (ep.RateLimit.Window <= 0 || ep.RateLimit.MaxRequests <= 0) {
		return entry{}, errors.New("rate limit needs a positive window and max requests")
	}
	if ep.Webhook != WebhookNone && ep.APIKey {
		return entry{}, errors.New("webhook and api key are exclusive")
	}

	ep.Pattern = Normalize(ep.Pattern)
	ep.Methods = methods
	e := entry{cfg: ep}

	segments := strings.Split(strings.TrimPrefix(ep.Pattern, "/"), "/")
	var b strings.Builder
	b.WriteString("^")
	seen := map[string]struct{}{}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		b.WriteString("/")
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if !paramName.MatchString(name) {
				return entry{}, fmt.Errorf("invalid parameter %q", seg)
			}
			if _, dup := seen[name]; dup {
				return entry{}, fmt.Errorf("duplicate parameter %q", name)
			}
			seen[name] = struct{}{}
			e.params = append(e.params, name)
			b.WriteString("([^/]+)")
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	if len(e.params) == 0 {
		return e, nil
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return entry{}, fmt.Errorf("compile pattern: %w", err)
	}
	e.re = re
	return e, nil
}

// shapeOf erases parameter names so /a/:x and /a/:y compare equal.
func shapeOf(pattern string) string {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = ":"
		}
	}
	return strings.Join(segs, "/")
}

// Normalize strips the query string, collapses duplicate separators and
// removes a trailing slash. The root path stays "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var b strings.Builder
	b.Grow(len(path) + 1)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	out := b.String()
	if len(out) > 1 {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}

// Resolve matches path and method. Exact patterns are tried first, then
// parameterized patterns in declaration order. A path that matches only
// under other methods yields MethodNotAllowed with the allowed set.
func (t *Table) Resolve(path, method string) RouteValidation {
	path = Normalize(path)
	method = strings.ToUpper(method)

	var allowed []string
	for _, idx := range t.exact[path] {
		e := &t.entries[idx]
		if e.cfg.AllowsMethod(method) {
			return RouteValidation{Valid: true, Endpoint: &e.cfg, NormalizedPath: e.cfg.Pattern, Params: map[string]string{}}
		}
		allowed = append(allowed, e.cfg.Methods...)
	}

	for i := range t.entries {
		e := &t.entries[i]
		if e.re == nil {
			continue
		}
		m := e.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		if !e.cfg.AllowsMethod(method) {
			allowed = append(allowed, e.cfg.Methods...)
			continue
		}
		params := make(map[string]string, len(e.params))
		for j, name := range e.params {
			params[name] = m[j+1]
		}
		return RouteValidation{Valid: true, Endpoint: &e.cfg, NormalizedPath: e.cfg.Pattern, Params: params}
	}

	if len(allowed) > 0 {
		return RouteValidation{MethodNotAllowed: true, Allowed: dedupe(allowed)}
	}
	return RouteValidation{}
}

// Endpoints returns a copy of the declared endpoints in order.
func (t *Table) Endpoints() []EndpointConfig {
	out := make([]EndpointConfig, len(t.entries))
	for i := range t.entries {
		out[i] = t.entries[i].cfg
	}
	return out
}

func dedupe(methods []string) []string {
	sort.Strings(methods)
	return slices.Compact(methods)
}
