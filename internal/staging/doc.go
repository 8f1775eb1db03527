// Package staging manages scratch directories under paths.scratch_dir.
//
// Every render acquires its own render-<uuid> directory and releases it on
// every exit path, so concurrent renders never share intermediates. Crashed
// processes can still leave directories behind; CleanStale reclaims those
// at startup.
package staging
