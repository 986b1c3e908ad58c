// Command vidlingo runs the caption translation daemon and talks to it.
//
// `vidlingo serve` starts the daemon: preflight checks, the single-lane
// pipeline, and the HTTP intake API. Client commands (submit, queue, status,
// history) call that API with the static token from the config file or
// --token. Maintenance commands (config, channel, media, token, logs,
// test-notify) work on local state and do not need a running daemon.
package main
