// Package testutil holds test doubles shared across voicenote packages: an
// in-memory storage backend with failure injection, a scripted ffmpeg
// runner, and a notifier that records hook order.
//
// MemStorage is also a TestComponent, so it can be started, reset, and
// snapshotted like any other component:
//
//	func TestStaging(t *testing.T) {
//	    store := testutil.NewMemStorage()
//	    testutil.T(t).Setup(store)
//	    store.FailUploads(2, nil)
//	}
package testutil
