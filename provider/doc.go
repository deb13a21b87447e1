// Package provider is the small generic framework behind swappable backends.
//
// A backend family (object storage, speech recognition) declares its
// interface embedding Provider and keeps a Registry of named factories.
// Implementations register from init, and the application creates the one
// named in config:
//
//	var Providers = provider.NewRegistry[Client, Settings]("recognition")
//
//	func init() {
//	    recognition.Providers.RegisterFactory("google", newClient)
//	}
//
//	client, err := recognition.Providers.Create(ctx, cfg.Provider, settings)
package provider
