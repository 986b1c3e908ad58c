// Package staging maintains the local media directory between jobs: it lists
// cached downloads and renders, and removes intermediates or stale files that
// failed or interrupted jobs left behind.
package staging
