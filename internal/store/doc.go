// Package store owns the proxy registry and its backing JSON file.
//
// Reads are served from an in-memory registry value that is never mutated in
// place. Mutations run one at a time, in arrival order, on a private copy:
//
//  1. clone the published registry
//  2. apply the mutator to the clone (validation and lookup errors stop here)
//  3. write the clone to <path>.tmp and replace <path>
//  4. publish the clone
//
// A failure in 2 or 3 leaves both the published registry and the canonical
// file as they were, so readers never see a change that was not persisted.
//
// The file replace is tiered: rename, rename retried with linear backoff on
// busy/permission errors, then copy-over-destination when the rename cannot
// work at all (cross-device, e.g. a bind-mounted single file).
package store
