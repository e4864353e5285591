package di

import (
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

type valueService struct {
	key           Key
	val           any
	closerFactory closerFactory
	aliases       []reflect.Type
}

func newValueService(val any, opts ...ServiceOption) (*valueService, error) {
	t := reflect.TypeOf(val)
	if err := validateServiceType(t); err != nil {
		return nil, err
	}

	svc := &valueService{
		key: Key{Type: t},
		val: val,
	}

	err := applyOptions(opts, func(opt ServiceOption) error {
		return opt.applyService(svc)
	})
	if err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *valueService) Key() Key {
	return s.key
}

func (s *valueService) setTag(tag any) {
	s.key.Tag = tag
}

func (s *valueService) Aliases() []reflect.Type {
	return s.aliases
}

func (s *valueService) addAlias(alias reflect.Type) error {
	if !s.key.Type.AssignableTo(alias) {
		return errors.Errorf("type %s not assignable to %s", s.key.Type, alias)
	}

	s.aliases = append(s.aliases, alias)
	return nil
}

func (*valueService) Lifetime() Lifetime {
	return Singleton
}

func (*valueService) Scope() Scope {
	return nil
}

func (*valueService) setLifetime(l Lifetime, _ Scope) error {
	if l != Singleton {
		return errors.Errorf("value services are always Singleton, not %s", l)
	}
	return nil
}

func (*valueService) Dependencies() []Key {
	return nil
}

func (*valueService) IsVariadic() bool {
	return false
}

func (s *valueService) New([]reflect.Value) (any, error) {
	return s.val, nil
}

func (s *valueService) CloserFor(val any) Closer {
	// The container is not responsible for closing this value by default.
	// But if a closer factory is provided, use it.
	if isNil(val) || s.closerFactory == nil {
		return nil
	}

	return s.closerFactory(val)
}

func (s *valueService) setCloserFactory(cf closerFactory) {
	s.closerFactory = cf
}

func (s *valueService) String() string {
	return s.key.Type.String()
}

var _ service = (*valueService)(nil)
