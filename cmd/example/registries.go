package main

import "github.com/junioryono/fnboot"

var ClientsModule = fnboot.NewModule("clients",
	fnboot.AddScoped(NewExampleClient),
)

var ServicesModule = fnboot.NewModule("services",
	fnboot.AddScoped(NewExampleService, fnboot.As[ExampleService]()),
	fnboot.AddSingleton(NewLogNotifier, fnboot.As[Notifier]()),
	fnboot.AddSingleton(NewCountingNotifier, fnboot.As[Notifier]()),
	fnboot.AddTransient(NewAuditor),
)
