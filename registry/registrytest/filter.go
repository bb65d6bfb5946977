package registrytest

import (
	"fmt"
	"strings"

	"github.com/roach88/svctrack/registry"
)

// The double understands a deliberately tiny filter grammar - just the shapes
// trackers generate plus simple hand-written test filters:
//
//	(key=value)     equality (values compared as their printed form)
//	(key=*)         presence
//	(&(a=1)(b=2))   conjunction
//
// This is not a filter-language implementation; production registries bring
// their own. Anything outside the grammar fails with registry.ErrInvalidFilter.

type filter struct {
	expr string
	node node
}

func (f *filter) Matches(ref registry.Reference) bool { return f.node.matches(ref) }
func (f *filter) String() string                      { return f.expr }

type node interface {
	matches(ref registry.Reference) bool
}

type eqNode struct{ key, value string }

func (n eqNode) matches(ref registry.Reference) bool {
	v, ok := ref.Property(n.key)
	if !ok {
		return false
	}
	return fmt.Sprint(v) == n.value
}

type presentNode struct{ key string }

func (n presentNode) matches(ref registry.Reference) bool {
	_, ok := ref.Property(n.key)
	return ok
}

type andNode struct{ children []node }

func (n andNode) matches(ref registry.Reference) bool {
	for _, c := range n.children {
		if !c.matches(ref) {
			return false
		}
	}
	return true
}

// compileFilter parses expr into a matcher. Errors wrap registry.ErrInvalidFilter.
func compileFilter(expr string) (*filter, error) {
	n, rest, err := parseNode(strings.TrimSpace(expr))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("%w: trailing input %q", registry.ErrInvalidFilter, rest)
	}
	return &filter{expr: expr, node: n}, nil
}

// parseNode consumes one parenthesized term and returns the remainder.
func parseNode(s string) (node, string, error) {
	if !strings.HasPrefix(s, "(") {
		return nil, "", fmt.Errorf("%w: expected '(' at %q", registry.ErrInvalidFilter, s)
	}
	body := s[1:]

	if strings.HasPrefix(body, "&") {
		rest := body[1:]
		var children []node
		for strings.HasPrefix(rest, "(") {
			child, r, err := parseNode(rest)
			if err != nil {
				return nil, "", err
			}
			children = append(children, child)
			rest = r
		}
		if len(children) == 0 {
			return nil, "", fmt.Errorf("%w: empty conjunction", registry.ErrInvalidFilter)
		}
		if !strings.HasPrefix(rest, ")") {
			return nil, "", fmt.Errorf("%w: unterminated conjunction", registry.ErrInvalidFilter)
		}
		return andNode{children: children}, rest[1:], nil
	}

	end := strings.IndexByte(body, ')')
	if end < 0 {
		return nil, "", fmt.Errorf("%w: unterminated term", registry.ErrInvalidFilter)
	}
	term, rest := body[:end], body[end+1:]

	eq := strings.IndexByte(term, '=')
	if eq <= 0 {
		return nil, "", fmt.Errorf("%w: term %q is not key=value", registry.ErrInvalidFilter, term)
	}
	key, value := term[:eq], term[eq+1:]
	if value == "*" {
		return presentNode{key: key}, rest, nil
	}
	return eqNode{key: key, value: value}, rest, nil
}
