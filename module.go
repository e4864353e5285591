package di

// A Module is a collection of container options.
// It can be used to export a re-usable group of related services.
//
// Example:
//
//	var CartModule = di.Module{
//		di.WithService(NewCatalog),
//		di.WithService(NewCart, di.InScope(dihttp.SessionScoped)),
//		di.WithService(NewCheckout, di.InScope(dihttp.RequestScoped)),
//	}
type Module []ContainerOption

func (Module) applyContainer(*Container) error { return nil }
func (Module) order() optionOrder              { return orderService }

// WithModule applies the options in a [Module] when calling [NewContainer].
//
// Example:
//
//	c, err := di.NewContainer(
//		di.WithModule(CartModule), // var CartModule di.Module
//		di.WithService(NewHandler), // NewHandler(*Catalog, di.Provider[*Cart]) *Handler
//	)
func WithModule(m Module) ContainerOption {
	return m
}

// flattenModules expands nested modules in place of the Module option.
// The result is a new slice.
func flattenModules(opts []ContainerOption) []ContainerOption {
	flat := make([]ContainerOption, 0, len(opts))
	for _, opt := range opts {
		if mod, ok := opt.(Module); ok {
			flat = append(flat, flattenModules(mod)...)
			continue
		}
		flat = append(flat, opt)
	}

	return flat
}
