// Package preflight provides readiness checks for the filesystem paths and
// external binaries slidereel depends on.
//
// The CLI "slidereel doctor" command runs RunAll and renders the results;
// produce and render call CheckDirectoryAccess on the output and scratch
// directories before spending time on a render.
package preflight
