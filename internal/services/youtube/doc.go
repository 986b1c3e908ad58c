// Package youtube publishes rendered videos to a language channel and manages
// the per-channel OAuth tokens that authorise uploads.
//
// Tokens live at <credentials_dir>/<channel>.json. The token source returned
// by TokenStore persists refreshed tokens back to the same file so a channel
// is authorised once with `vidlingo channel setup`.
package youtube
