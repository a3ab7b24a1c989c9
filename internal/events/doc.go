// Package events carries in-process notifications from the API layer to
// the background task dispatcher.
//
// The task service emits a TaskCreatedEvent after persisting a task so
// the dispatcher can pick it up immediately instead of waiting for its
// next poll. Emitters and handlers are decoupled through the
// EventEmitter and EventHandler interfaces, keeping the service layer
// free of a direct dependency on the dispatcher.
package events
