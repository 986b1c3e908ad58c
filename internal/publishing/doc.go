// Package publishing uploads the captioned video with its translated metadata
// and reports upload progress through an observer callback.
//
// A failed upload fails the job; the stage never retries on its own.
package publishing
