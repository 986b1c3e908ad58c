// Package preflight provides readiness checks for the binaries, directories,
// disk space and services vidlingo depends on.
//
// These checks run in three contexts:
//   - `vidlingo serve` calls RunAll once at startup and refuses to start when
//     a required binary or directory is unusable.
//   - The media stage calls the function returned by FreeSpaceCheck before
//     every download so a full disk fails that job instead of the host.
//   - The daemon status view reports CheckSystemDeps results.
package preflight
