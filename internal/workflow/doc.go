// Package workflow runs queued translation jobs through the pipeline stages.
//
// The Engine owns the single-lane queue. Each time the queue hands it a new
// head, the Engine runs that job in a fixed order: transcript fetch,
// transcript translation, media fetch and merge, probe, caption burn-in,
// metadata translation, publish and notify. After a successful publish it
// also removes the job's artifacts. Whatever the outcome, it then calls
// DequeueHead so the next job starts without any external trigger.
//
// Every stage runs through stageexec with the timeout taken from
// [workflow] in config.toml. Transient transcript, media and metadata
// failures get a bounded number of retries. Publish is never retried.
// Notify failures are logged and never change the job's outcome.
//
// Terminal outcomes go to the history ledger. Ledger errors are logged and
// never hold up the queue.
package workflow
