// Package component defines the lifecycle interfaces shared by the
// long-lived parts of the service (storage, scheduler, event publisher,
// HTTP server).
//
// Components are registered with a Registry, started in registration order,
// stopped in reverse and polled for health by the /health endpoint.
//
// # Interfaces
//
//   - Component: core lifecycle (Start/Stop/Health)
//   - Describable: startup summary descriptions
//   - RouteProvider: HTTP routes for the startup summary
package component
