// Package launch wires the pass pipeline together: resolve the work
// directory, allocate and create the next pass directory under the
// work-directory lock, stage it, then submit the master job and the worker
// array.
//
// Usage errors are detected before anything is written. Once the pass
// directory exists nothing is rolled back: a failure part way through
// leaves a partially staged pass whose files show how far it got.
package launch
