package di

import (
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

type funcService struct {
	key           Key
	aliases       []reflect.Type
	fn            reflect.Value
	lifetime      Lifetime
	scope         Scope
	deps          []Key
	closerFactory closerFactory
}

func newFuncService(fn any, opts ...ServiceOption) (*funcService, error) {
	fnType := reflect.TypeOf(fn)

	// Get the return type
	var t reflect.Type
	switch {
	case fnType.NumOut() == 1:
		t = fnType.Out(0)
	case fnType.NumOut() == 2 && fnType.Out(1) == typeError:
		t = fnType.Out(0)
	default:
		return nil, errors.New("function must return Service or (Service, error)")
	}

	if err := validateServiceType(t); err != nil {
		return nil, err
	}

	deps := make([]Key, fnType.NumIn())
	for i := range fnType.NumIn() {
		deps[i] = Key{Type: fnType.In(i)}
	}

	svc := &funcService{
		key:           Key{Type: t},
		fn:            reflect.ValueOf(fn),
		deps:          deps,
		closerFactory: AsCloser,
	}

	err := applyOptions(opts, func(opt ServiceOption) error {
		return opt.applyService(svc)
	})
	if err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *funcService) Key() Key {
	return s.key
}

func (s *funcService) setTag(tag any) {
	s.key.Tag = tag
}

func (s *funcService) Aliases() []reflect.Type {
	return s.aliases
}

func (s *funcService) addAlias(alias reflect.Type) error {
	if !s.key.Type.AssignableTo(alias) {
		return errors.Errorf("type %s not assignable to %s", s.key.Type, alias)
	}

	s.aliases = append(s.aliases, alias)
	return nil
}

func (s *funcService) Lifetime() Lifetime {
	return s.lifetime
}

func (s *funcService) Scope() Scope {
	return s.scope
}

func (s *funcService) setLifetime(l Lifetime, scope Scope) error {
	s.lifetime = l
	s.scope = scope
	return nil
}

func (s *funcService) Dependencies() []Key {
	return s.deps
}

func (s *funcService) IsVariadic() bool {
	return s.fn.Type().IsVariadic()
}

func (s *funcService) New(deps []reflect.Value) (any, error) {
	var out []reflect.Value

	// Call the function
	if s.IsVariadic() {
		out = s.fn.CallSlice(deps)
	} else {
		out = s.fn.Call(deps)
	}

	// Extract the return value and error, if any
	val := out[0].Interface()

	var err error
	if len(out) == 2 {
		err, _ = out[1].Interface().(error)
	}

	return val, err
}

func (s *funcService) CloserFor(val any) Closer {
	if isNil(val) || s.closerFactory == nil {
		return nil
	}

	return s.closerFactory(val)
}

func (s *funcService) setCloserFactory(cf closerFactory) {
	s.closerFactory = cf
}

func (s *funcService) String() string {
	return s.fn.Type().String()
}

var _ service = (*funcService)(nil)
