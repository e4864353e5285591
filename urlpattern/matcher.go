package urlpattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sectrean/di-web/internal/errors"
)

// Kind is the syntax of a pattern.
type Kind uint8

const (
	// Servlet patterns are exact paths, prefixes ending in /* or extensions starting with *.
	Servlet Kind = iota
	// Regex patterns are regular expressions that must match the whole path.
	Regex
	// Expr patterns are boolean expressions over the variable path.
	Expr
)

func (k Kind) String() string {
	switch k {
	case Servlet:
		return "Servlet"
	case Regex:
		return "Regex"
	case Expr:
		return "Expr"
	default:
		return fmt.Sprintf("Unknown Kind %d", k)
	}
}

// DefaultMatchTimeout bounds the time a [Regex] pattern may spend matching one path.
var DefaultMatchTimeout = time.Second

// Matcher is a compiled pattern.
type Matcher interface {
	// Matches reports whether path matches the pattern.
	Matches(path string) bool
	// ExtractPath returns the part of path that the pattern matched, which becomes
	// the servlet path of a request.
	ExtractPath(path string) string
	// Kind returns the syntax of the pattern.
	Kind() Kind
	// Pattern returns the pattern as it was compiled.
	Pattern() string
}

// Compile compiles pattern using the syntax of kind.
func Compile(kind Kind, pattern string) (Matcher, error) {
	var m Matcher
	var err error

	switch kind {
	case Servlet:
		m, err = compileServlet(pattern)
	case Regex:
		m, err = compileRegex(pattern)
	case Expr:
		m, err = compileExpr(pattern)
	default:
		err = errors.Errorf("unknown kind %s", kind)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "urlpattern.Compile %s %q", kind, pattern)
	}
	return m, nil
}

// MustCompile is like [Compile] but panics if the pattern cannot be compiled.
func MustCompile(kind Kind, pattern string) Matcher {
	m, err := Compile(kind, pattern)
	if err != nil {
		panic(err)
	}
	return m
}

type servletForm uint8

const (
	formExact servletForm = iota
	formPrefix
	formSuffix
)

type servletMatcher struct {
	pattern string
	literal string
	form    servletForm
}

func compileServlet(pattern string) (*servletMatcher, error) {
	if pattern == "" {
		return nil, errors.New("pattern is empty")
	}

	m := &servletMatcher{pattern: pattern}
	switch {
	case strings.HasPrefix(pattern, "*"):
		m.form = formSuffix
		m.literal = pattern[1:]
	case strings.HasSuffix(pattern, "/*"):
		m.form = formPrefix
		m.literal = pattern[:len(pattern)-1]
	default:
		m.form = formExact
		m.literal = pattern
	}

	if strings.Contains(m.literal, "*") {
		return nil, errors.New("wildcard must be a leading *. or a trailing /*")
	}

	return m, nil
}

func (m *servletMatcher) Matches(path string) bool {
	switch m.form {
	case formPrefix:
		return strings.HasPrefix(path, m.literal)
	case formSuffix:
		return strings.HasSuffix(path, m.literal)
	default:
		return path == m.literal
	}
}

func (m *servletMatcher) ExtractPath(path string) string {
	if m.form == formPrefix {
		// /api/* maps /api/users to the servlet path /api
		return strings.TrimSuffix(m.literal, "/")
	}
	return path
}

func (*servletMatcher) Kind() Kind {
	return Servlet
}

func (m *servletMatcher) Pattern() string {
	return m.pattern
}

type regexMatcher struct {
	pattern string
	re      *regexp2.Regexp
}

func compileRegex(pattern string) (*regexMatcher, error) {
	// Anchor the pattern so it has to match the whole path
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = DefaultMatchTimeout

	return &regexMatcher{pattern: pattern, re: re}, nil
}

func (m *regexMatcher) Matches(path string) bool {
	ok, err := m.re.MatchString(path)
	return err == nil && ok
}

// ExtractPath returns the first capturing group, or the whole path if the pattern has none.
func (m *regexMatcher) ExtractPath(path string) string {
	match, err := m.re.FindStringMatch(path)
	if err != nil || match == nil {
		return path
	}

	if match.GroupCount() > 1 {
		if g := match.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			return g.String()
		}
	}
	return path
}

func (*regexMatcher) Kind() Kind {
	return Regex
}

func (m *regexMatcher) Pattern() string {
	return m.pattern
}

type exprMatcher struct {
	pattern string
	program *vm.Program
}

func compileExpr(pattern string) (*exprMatcher, error) {
	program, err := expr.Compile(pattern,
		expr.Env(map[string]any{"path": ""}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	return &exprMatcher{pattern: pattern, program: program}, nil
}

func (m *exprMatcher) Matches(path string) bool {
	out, err := expr.Run(m.program, map[string]any{"path": path})
	if err != nil {
		return false
	}

	ok, _ := out.(bool)
	return ok
}

func (*exprMatcher) ExtractPath(path string) string {
	return path
}

func (*exprMatcher) Kind() Kind {
	return Expr
}

func (m *exprMatcher) Pattern() string {
	return m.pattern
}

var (
	_ Matcher = (*servletMatcher)(nil)
	_ Matcher = (*regexMatcher)(nil)
	_ Matcher = (*exprMatcher)(nil)
)
