// Package media downloads, merges and captions the source video.
//
// FetchAndMerge reuses media/<videoId>.mp4 when it already exists. Otherwise
// it downloads the video-only and audio-only streams concurrently, muxes them
// and removes the intermediate .part files whether or not the merge
// succeeded. BurnCaptions derives one display window per translated part and
// hands the overlays to the renderer; the rendered file lands at
// media/<language>/<videoId>.mp4 only when rendering completes.
package media
