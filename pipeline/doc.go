// Package pipeline runs one transcription job: canonicalize, route, stage
// when needed, recognize, assemble, then clean up every intermediate
// artifact whatever the outcome.
//
// Progress is reported through a Notifier at fixed points. Notifiers only
// observe; they cannot change control flow.
package pipeline
