// Package action intercepts actions run on arbor nodes and reports their
// lifecycle to middleware.
//
// Every call routed through Tracker.Run or Tracker.RunFlow gets a Context
// linked to the context that was running when it started, so nested calls
// form a call tree. Registered middleware first filter the context; when it
// is accepted they observe it through the start, resume, suspend, and finish
// hooks:
//
//	filter, start, resume, [suspend, resume]..., suspend, finish
//
// Synchronous calls resume right after start and suspend right before
// finish. Flows add a suspend/resume pair around every Flow.Await.
//
// A Tracker is not safe for concurrent use.
package action
