// Package recognition is the provider-neutral speech recognition client.
//
// Small audio is recognized inline with RecognizeSync. Larger audio is
// staged first and recognized with RecognizeAsync, whose Operation is
// collected with Await under a timeout. Assemble turns a Response into the
// final transcript.
//
// Backends:
//
//   - recognition/google: Cloud Speech-to-Text v1
//   - recognition/whisper: faster-whisper HTTP sidecar
package recognition
