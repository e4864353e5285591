package di

import (
	"fmt"
	"reflect"
	"strings"
)

// Key identifies a service: the type it is resolved as and an optional tag.
//
// Keys are comparable and are used as map keys by the [Container] and by [Scope] implementations.
// Two keys are equal when both their types and their tags are equal.
type Key struct {
	Type reflect.Type
	Tag  any
}

// KeyFor returns the untagged [Key] for type T.
//
// Use [Key.Tagged] to add a tag:
//
//	key := di.KeyFor[*sql.DB]().Tagged(db.Replica)
func KeyFor[T any]() Key {
	return Key{Type: reflect.TypeFor[T]()}
}

// Tagged returns a copy of the key with the given tag.
func (k Key) Tagged(tag any) Key {
	return Key{Type: k.Type, Tag: tag}
}

func (k Key) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	if k.Tag == nil {
		return k.Type.String()
	}
	return fmt.Sprintf("%s (Tag %v)", k.Type, k.Tag)
}

// Name returns the fully qualified name of the key.
//
// Unlike [Key.String], the name includes the import path of named types so that two types
// with the same package name never collide. It is stable across processes and is used as
// the attribute name when scoped instances are persisted.
func (k Key) Name() string {
	name := qualifiedTypeName(k.Type)
	if k.Tag == nil {
		return name
	}
	return fmt.Sprintf("%s;tag=%T(%v)", name, k.Tag, k.Tag)
}

func qualifiedTypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Ptr:
		return "*" + qualifiedTypeName(t.Elem())
	case reflect.Slice:
		return "[]" + qualifiedTypeName(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), qualifiedTypeName(t.Elem()))
	case reflect.Map:
		return "map[" + qualifiedTypeName(t.Key()) + "]" + qualifiedTypeName(t.Elem())
	case reflect.Func:
		var sb strings.Builder
		sb.WriteString("func(")
		for i := range t.NumIn() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(qualifiedTypeName(t.In(i)))
		}
		sb.WriteString(")")
		for i := range t.NumOut() {
			sb.WriteString(" ")
			sb.WriteString(qualifiedTypeName(t.Out(i)))
		}
		return sb.String()
	}

	return t.String()
}

// ResolveOption is used when calling [Resolve], [MustResolve], [Container.Resolve]
// or [Container.Contains].
//
// Available options:
//   - [WithTag]
type ResolveOption interface {
	applyKey(Key) Key
}

func newKey(t reflect.Type, opts []ResolveOption) Key {
	key := Key{Type: t}
	for _, opt := range opts {
		key = opt.applyKey(key)
	}
	return key
}
