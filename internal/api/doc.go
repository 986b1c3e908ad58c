// Package api serves the HTTP intake surface of the daemon and the client
// the CLI uses to talk to it.
//
// # Routes
//
//	POST /api/jobs     submit a video for translation; replies 202 with the
//	                   queue position
//	GET  /api/queue    ordered queue view (video id and language only)
//	GET  /api/status   engine status and dependency health
//	GET  /api/history  recent terminal outcomes
//	GET  /healthz      liveness
//
// Requests under /api authenticate with either the static API token or an
// HS256 JWT whose email claim names the requester. When an allowed email
// domain is configured, requesters outside it are rejected.
//
// Queue views never carry requester data; the email travels with the job only
// as far as the notify stage.
package api
