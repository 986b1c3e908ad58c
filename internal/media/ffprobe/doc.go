// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The media stage uses it to confirm a merged file carries both video and
// audio and to read the duration that bounds the final caption window.
package ffprobe
