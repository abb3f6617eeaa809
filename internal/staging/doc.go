// Package staging materializes a pass directory.
//
// Stage copies the support scripts, writes identity metadata and optional
// override files, creates the worker output container, and links a fresh
// bulk-scratch directory into the pass. Any failure aborts staging and leaves
// whatever was written in place for inspection; nothing is rolled back.
//
// The file names in this package are read by tooling that inspects passes
// later and must not change.
package staging
