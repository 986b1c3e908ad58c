// Package artifacts persists stage outputs keyed by video, language, and kind.
//
// An artifact's existence is the idempotency signal for its stage: the
// translation stage skips the metered translator when a transcript is cached,
// and the media stage reuses a merged download. FS keeps everything under the
// data directory; S3 can hold the transcript cache in a bucket.
package artifacts
