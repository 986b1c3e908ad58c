// Package queue holds pending translation jobs in submission order and owns
// the one-active-job rule.
//
// Enqueue and DequeueHead both end in the same maybeRunHead step: a job is
// dispatched only when it is the head and nothing else is active. The queue
// lives in memory; terminal outcomes are recorded by the history package.
package queue
