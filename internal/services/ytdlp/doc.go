// Package ytdlp wraps the yt-dlp command line tool as the transcript source,
// stream downloader and metadata probe.
//
// Transcripts are requested as json3 caption tracks and converted into ordered
// job.TranscriptPart values. Video-only and audio-only streams are downloaded
// to caller supplied paths so the media stage can run both concurrently and
// mux them afterwards. Tests inject a CommandRunner instead of executing the
// binary.
package ytdlp
