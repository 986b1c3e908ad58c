// Package language holds the closed set of target languages the pipeline can
// translate into, with lookups by display name or ISO code.
package language
