// Package interview runs one voice interview session against a realtime
// transport and decides when it ends.
//
// A Controller owns a serial event loop. Transport messages, timer expiries
// and user requests are all posted to that loop, so the transcript Tracker,
// the payload Detector and the inactivity Governor never see concurrent
// calls. Results leave the loop as Signals delivered in order to an
// Observer, usually a Callbacks value.
//
// A session ends exactly once, for one of these causes:
//
//   - a fenced JSON block carrying "twin_profile" appears in assistant text
//     (OnProfileDetected)
//   - a completion phrase was spoken and the grace period passed without
//     a block (OnCompletionDetected)
//   - nobody spoke for the silence timeout (OnSilenceTimeout)
//   - Disconnect was called, or the transport failed
//
// The transport is always released before the terminal callback runs.
package interview
