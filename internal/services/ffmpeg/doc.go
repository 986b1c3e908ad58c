// Package ffmpeg muxes downloaded streams and burns timed caption overlays into
// video using the ffmpeg binary.
//
// Overlays are expressed as a drawtext filter chain written to a script file
// and passed with -filter_complex_script, so transcript length never runs into
// argv limits. Outputs are written to a temporary sibling and renamed into
// place only when ffmpeg exits cleanly.
package ffmpeg
