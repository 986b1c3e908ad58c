// Package fileutil holds small filesystem helpers shared by the artifact store
// and the media stage.
package fileutil
