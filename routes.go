package x402

import (
	"fmt"
	"strings"
)

// StandardMethods is the method filter applied when a route rule omits one.
var StandardMethods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

// RouteRule prices a set of paths. Rules are configured once at startup and
// looked up, never written, per request.
type RouteRule struct {
	// Pattern is an anchored path pattern: exact literals ("/api/report"),
	// single-segment parameters ("/api/users/:id"), and a trailing wildcard
	// segment ("/api/*") that matches any suffix.
	Pattern string

	// Price is the human-facing USD price string (e.g. "0.01").
	Price string

	// Description explains what the payment is for.
	Description string

	// Methods restricts the rule to these HTTP verbs. Empty means
	// StandardMethods.
	Methods []string
}

// compiledRule is a RouteRule with its pattern split for matching.
type compiledRule struct {
	rule     RouteRule
	segments []string
	wildcard bool
	methods  map[string]struct{}
}

// RouteTable matches inbound requests against an ordered list of pricing
// rules. The first rule (declaration order) whose pattern and method both
// match wins; order is the explicit tie-break, not specificity. Tables are
// immutable after construction and safe for concurrent lookups.
type RouteTable struct {
	rules []compiledRule
}

// NewRouteTable compiles and validates an ordered list of pricing rules.
// Invalid patterns or prices are configuration errors and fail construction.
func NewRouteTable(rules []RouteRule, decimals int32) (*RouteTable, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("%w: rule %d: pattern %q must start with /", ErrInvalidConfig, i, rule.Pattern)
		}
		if _, err := USDToBaseUnits(rule.Price, decimals); err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s): %v", ErrInvalidConfig, i, rule.Pattern, err)
		}

		segments := splitPath(rule.Pattern)
		wildcard := false
		for j, seg := range segments {
			if seg == "*" {
				if j != len(segments)-1 {
					return nil, fmt.Errorf("%w: rule %d: wildcard must be the final segment in %q", ErrInvalidConfig, i, rule.Pattern)
				}
				wildcard = true
			}
		}
		if wildcard {
			segments = segments[:len(segments)-1]
		}

		methodList := rule.Methods
		if len(methodList) == 0 {
			methodList = StandardMethods
		}
		methods := make(map[string]struct{}, len(methodList))
		for _, m := range methodList {
			methods[strings.ToUpper(m)] = struct{}{}
		}

		compiled = append(compiled, compiledRule{
			rule:     rule,
			segments: segments,
			wildcard: wildcard,
			methods:  methods,
		})
	}
	return &RouteTable{rules: compiled}, nil
}

// Resolve returns the first declared rule matching the request path and
// method, or false when the request falls outside every rule and should pass
// through unprotected.
func (t *RouteTable) Resolve(path, method string) (*RouteRule, bool) {
	segments := splitPath(path)
	method = strings.ToUpper(method)

	for i := range t.rules {
		cr := &t.rules[i]
		if _, ok := cr.methods[method]; !ok {
			continue
		}
		if cr.match(segments) {
			return &cr.rule, true
		}
	}
	return nil, false
}

// match checks an anchored pattern against the path segments.
func (cr *compiledRule) match(path []string) bool {
	if cr.wildcard {
		if len(path) < len(cr.segments) {
			return false
		}
	} else if len(path) != len(cr.segments) {
		return false
	}

	for i, seg := range cr.segments {
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if path[i] != seg {
			return false
		}
	}
	return true
}

// splitPath splits a slash-delimited path into segments, ignoring a trailing
// slash. The root path "/" yields no segments.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
