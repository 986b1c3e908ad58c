// Package notifications tells requesters their translated video is live.
//
// Service is the delivery delegate. NewService selects customer.io
// transactional email, an ntfy topic, or a no-op based on config. Stage wraps
// a Service for the pipeline: delivery failures are logged and swallowed so
// they never undo a successful publish or touch the queue.
package notifications
