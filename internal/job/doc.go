// Package job defines the data carried through the translation pipeline: the
// Job itself, transcript parts before and after translation, and the public
// queue projection.
package job
