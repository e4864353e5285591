package dihttp

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/errors"
	"github.com/sectrean/di-web/urlpattern"
)

// PipelineOption configures a [Pipeline] when calling [NewPipeline].
//
// Available options:
//   - [FilterURL], [FilterRegex] and [FilterExpr] map filters.
//   - [Serve], [ServeRegex] and [ServeExpr] map servlets.
//   - [Module] groups options.
//   - [WithContextPath] sets the context path.
//   - [WithLogger] sets the logger.
type PipelineOption interface {
	applyPipeline(*Pipeline) error
}

type pipelineOption func(*Pipeline) error

func (o pipelineOption) applyPipeline(p *Pipeline) error {
	return o(p)
}

// A Module is an ordered group of pipeline options.
//
// Filters and servlets are dispatched in the order they are mapped, across all modules.
//
// Example:
//
//	var AuthModule = dihttp.Module{
//		dihttp.FilterURL("/*").Through(di.KeyFor[*SessionFilter]()),
//		dihttp.Serve("/login").With(di.KeyFor[*LoginServlet]()),
//	}
type Module []PipelineOption

func (m Module) applyPipeline(p *Pipeline) error {
	var errs errors.MultiError
	for _, opt := range m {
		errs = errs.Append(opt.applyPipeline(p))
	}
	return errs.Join()
}

// WithContextPath sets the path the application is mounted at. It is removed from request
// paths before they are matched. The default is "", the root.
func WithContextPath(contextPath string) PipelineOption {
	return pipelineOption(func(p *Pipeline) error {
		p.contextPath = contextPath
		return nil
	})
}

// FilterOption configures a filter or servlet mapping.
//
// Available options:
//   - [WithInitParams]
//   - [WithName]
type FilterOption func(*entry)

// WithInitParams sets the init parameters passed to [Initializer.Init] in [Config].
func WithInitParams(params map[string]string) FilterOption {
	return func(e *entry) {
		e.params = maps.Clone(params)
	}
}

// WithName sets the name passed to [Initializer.Init] in [Config].
func WithName(name string) FilterOption {
	return func(e *entry) {
		e.name = name
	}
}

// FilterMapping maps URL patterns to a filter. Complete it with [FilterMapping.Through].
type FilterMapping struct {
	kind     urlpattern.Kind
	patterns []string
}

// FilterURL maps servlet-style patterns to a filter: exact paths, prefixes like /api/* and
// extensions like *.html.
func FilterURL(pattern string, morePatterns ...string) FilterMapping {
	return FilterMapping{kind: urlpattern.Servlet, patterns: append([]string{pattern}, morePatterns...)}
}

// FilterRegex maps regular expressions to a filter. Each must match the whole path.
func FilterRegex(pattern string, morePatterns ...string) FilterMapping {
	return FilterMapping{kind: urlpattern.Regex, patterns: append([]string{pattern}, morePatterns...)}
}

// FilterExpr maps boolean expressions over path to a filter.
func FilterExpr(pattern string, morePatterns ...string) FilterMapping {
	return FilterMapping{kind: urlpattern.Expr, patterns: append([]string{pattern}, morePatterns...)}
}

// Through sets the filter of the mapping.
//
// The target is a [di.Key] of a service implementing [Filter], resolved when the pipeline is
// initialized, or a [Filter] instance.
func (m FilterMapping) Through(target any, opts ...FilterOption) PipelineOption {
	return mappingOption(kindFilter, m.kind, m.patterns, target, opts)
}

// ServletMapping maps URL patterns to a servlet. Complete it with [ServletMapping.With].
type ServletMapping struct {
	kind     urlpattern.Kind
	patterns []string
}

// Serve maps servlet-style patterns to a servlet: exact paths, prefixes like /api/* and
// extensions like *.html.
func Serve(pattern string, morePatterns ...string) ServletMapping {
	return ServletMapping{kind: urlpattern.Servlet, patterns: append([]string{pattern}, morePatterns...)}
}

// ServeRegex maps regular expressions to a servlet. Each must match the whole path.
// The first capturing group, if any, is the servlet path.
func ServeRegex(pattern string, morePatterns ...string) ServletMapping {
	return ServletMapping{kind: urlpattern.Regex, patterns: append([]string{pattern}, morePatterns...)}
}

// ServeExpr maps boolean expressions over path to a servlet.
func ServeExpr(pattern string, morePatterns ...string) ServletMapping {
	return ServletMapping{kind: urlpattern.Expr, patterns: append([]string{pattern}, morePatterns...)}
}

// With sets the servlet of the mapping.
//
// The target is a [di.Key] of a service implementing [Servlet], resolved when the pipeline is
// initialized, or a [Servlet] instance.
func (m ServletMapping) With(target any, opts ...FilterOption) PipelineOption {
	return mappingOption(kindServlet, m.kind, m.patterns, target, opts)
}

func mappingOption(
	kind entryKind,
	patternKind urlpattern.Kind,
	patterns []string,
	target any,
	opts []FilterOption,
) PipelineOption {
	return pipelineOption(func(p *Pipeline) error {
		if err := checkTarget(kind, target); err != nil {
			return errors.Wrapf(err, "%s %q", kind, patterns)
		}

		var errs errors.MultiError
		for _, pattern := range patterns {
			m, err := urlpattern.Compile(patternKind, pattern)
			if err != nil {
				errs = errs.Append(errors.Wrapf(err, "%s", kind))
				continue
			}

			e := &entry{
				kind:    kind,
				matcher: m,
				target:  target,
			}
			for _, opt := range opts {
				opt(e)
			}
			if e.name == "" {
				e.name = targetName(target)
			}

			p.addEntry(e)
		}
		return errs.Join()
	})
}

func checkTarget(kind entryKind, target any) error {
	switch t := target.(type) {
	case nil:
		return errors.New("target is nil")
	case di.Key:
		if t.Type == nil {
			return errors.New("target key has no type")
		}
		return nil
	}

	if kind == kindFilter {
		if _, ok := target.(Filter); !ok {
			return errors.Errorf("target %T does not implement dihttp.Filter", target)
		}
	} else if _, ok := target.(Servlet); !ok {
		return errors.Errorf("target %T does not implement dihttp.Servlet", target)
	}
	return nil
}

func targetName(target any) string {
	if key, ok := target.(di.Key); ok {
		return key.String()
	}
	return fmt.Sprintf("%T", target)
}

// LoggerOption is accepted by [NewPipeline] and [NewDispatcher].
type LoggerOption interface {
	PipelineOption
	DispatcherOption
}

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(logger *slog.Logger) LoggerOption {
	return loggerOption{logger: logger}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o loggerOption) applyPipeline(p *Pipeline) error {
	if o.logger == nil {
		return errors.New("with logger: logger is nil")
	}
	p.logger = o.logger
	return nil
}

func (o loggerOption) applyDispatcher(d *Dispatcher) error {
	if o.logger == nil {
		return errors.New("with logger: logger is nil")
	}
	d.logger = o.logger
	return nil
}
