// Package state shares the latest probe outcome between the poller and the
// watch view.
//
// The poller is the only writer; the UI reads on its own tick. Store guards
// a single Snapshot with a sync.RWMutex and both Update and Snapshot copy
// the body and headers, so neither side can observe the other's mutations.
//
// Update semantics:
//
//	store.Update(&result, nil)
//	→ snapshot.Result = result
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	store.Update(nil, err)
//	→ snapshot.Result = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// A non-2xx answer is still a Result: the socket worked and the peer
// replied. Only transport and protocol failures count toward IsOffline.
//
// The zero Store is ready to use.
package state
