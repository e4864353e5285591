package di_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/sectrean/di-web"
	"github.com/sectrean/di-web/internal/testtypes"
	"github.com/stretchr/testify/require"
)

func BenchmarkContainer_Contains(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(&testtypes.StructA{}),
	)
	require.NoError(b, err)

	t := reflect.TypeFor[*testtypes.StructA]()
	for i := 0; i < b.N; i++ {
		_ = c.Contains(t)
	}
}

func BenchmarkContainer_Resolve_OneValueService(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(&testtypes.StructA{}),
	)
	require.NoError(b, err)

	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[*testtypes.StructA](ctx, c)
	}
}

func BenchmarkContainer_Resolve_OneFunc_Singleton(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewInterfaceA, di.Singleton),
	)
	require.NoError(b, err)

	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[testtypes.InterfaceA](ctx, c)
	}
}

func BenchmarkContainer_Resolve_OneFunc_Transient(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewInterfaceA, di.Transient),
	)
	require.NoError(b, err)

	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[testtypes.InterfaceA](ctx, c)
	}
}

func BenchmarkContainer_Resolve_OneFunc_Scoped(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewInterfaceA, di.InScope(TestScoped)),
	)
	require.NoError(b, err)

	ctx, _ := withTestScope(context.Background())

	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[testtypes.InterfaceA](ctx, c)
	}
}

func BenchmarkContainer_Resolve_FourFuncs_Transient(b *testing.B) {
	c, err := di.NewContainer(
		di.WithService(testtypes.NewInterfaceA, di.Transient),
		di.WithService(testtypes.NewInterfaceB, di.Transient),
		di.WithService(testtypes.NewInterfaceC, di.Transient),
		di.WithService(testtypes.NewInterfaceD, di.Transient),
	)
	require.NoError(b, err)

	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = di.Resolve[testtypes.InterfaceD](ctx, c)
	}
}
