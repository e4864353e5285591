package di

import (
	"context"
	"reflect"

	"github.com/sectrean/di-web/internal/errors"
)

// Invoke calls the given function with parameters resolved from the provided [Resolver].
//
// The function may take any number of parameters which will be resolved from the Resolver,
// and may return any number of results.
// A [context.Context] parameter receives ctx and a [Resolver] parameter receives r.
// An [error] return parameter will be passed along and any other return parameters are ignored.
//
// Available options:
//   - [WithTagged] specifies a tag for a parameter.
func Invoke(ctx context.Context, r Resolver, fn any, opts ...InvokeOption) error {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return errors.Errorf("di.Invoke %T: fn must be a function", fn)
	}

	deps := make([]Key, fnType.NumIn())
	for i := range fnType.NumIn() {
		deps[i] = Key{Type: fnType.In(i)}
	}

	config := &invokeConfig{deps: deps}
	err := applyOptions(opts, func(opt InvokeOption) error {
		return opt.applyInvokeConfig(config)
	})
	if err != nil {
		return errors.Wrapf(err, "di.Invoke %T", fn)
	}

	in := make([]reflect.Value, len(config.deps))
	for i, dep := range config.deps {
		var depVal any
		var depErr error

		switch dep.Type {
		case typeContext:
			depVal = ctx
		case typeResolver:
			depVal = r
		default:
			depVal, depErr = ResolveKey(ctx, r, dep)
		}

		if depErr != nil {
			// Stop at the first error
			return errors.Wrapf(depErr, "di.Invoke %T", fn)
		}
		in[i] = safeReflectValue(dep.Type, depVal)
	}

	// Check for a context error before we invoke the function
	if ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), "di.Invoke %T", fn)
	}

	var out []reflect.Value
	if fnType.IsVariadic() {
		out = reflect.ValueOf(fn).CallSlice(in)
	} else {
		out = reflect.ValueOf(fn).Call(in)
	}

	// Return the first error return value, if any.
	// Don't wrap the error, return it as-is.
	for i := range fnType.NumOut() {
		if fnType.Out(i) == typeError {
			err, _ := out[i].Interface().(error)
			return err
		}
	}

	return nil
}

// InvokeOption is used to configure the behavior of [Invoke].
//
// Available options:
//   - [WithTagged]
type InvokeOption interface {
	applyInvokeConfig(*invokeConfig) error
}

type invokeConfig struct {
	deps []Key
}
