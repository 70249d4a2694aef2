package fnboot

import "reflect"

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Container) error

// NewModule creates a named service registry. Modules group related
// registrations so an application can apply them together at startup.
//
// Example:
//
//	var DataModule = fnboot.NewModule("data",
//	    fnboot.AddSingleton(NewDatabase),
//	    fnboot.AddScoped(NewUserRepository, fnboot.As[UserRepository]()),
//	)
//
//	var AppModule = fnboot.NewModule("app",
//	    DataModule,
//	    fnboot.AddScoped(NewUserService),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(c *Container) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(c); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// AddSingleton creates a ModuleOption registering a singleton service.
func AddSingleton(service any, opts ...AddOption) ModuleOption {
	return func(c *Container) error {
		return c.AddSingleton(service, opts...)
	}
}

// AddScoped creates a ModuleOption registering a scoped service.
func AddScoped(service any, opts ...AddOption) ModuleOption {
	return func(c *Container) error {
		return c.AddScoped(service, opts...)
	}
}

// AddTransient creates a ModuleOption registering a transient service.
func AddTransient(service any, opts ...AddOption) ModuleOption {
	return func(c *Container) error {
		return c.AddTransient(service, opts...)
	}
}

// AddService creates a ModuleOption registering key with an explicit factory.
func AddService(key reflect.Type, factory Factory, lifetime Lifetime) ModuleOption {
	return func(c *Container) error {
		return c.AddService(key, factory, lifetime)
	}
}
