// Package translation turns a source transcript into a translated transcript
// and translates video titles and descriptions.
//
// Translated transcripts are cached in the artifact store under
// translations/<language>/<videoId>.json. A cached artifact is returned as is,
// so repeated runs for the same video and language call the metered
// translator at most once. A translator reply whose length differs from the
// transcript fails the stage without writing anything.
package translation
