// Package logging assembles structured slog loggers and attribute helpers used
// across passlaunch.
//
// It owns the console and JSON handlers and the standard attribute keys for
// work directories, passes and scheduler job ids. Command output intended for
// scripts goes to stdout; everything logged here goes to stderr unless a
// caller routes it elsewhere. NewNop serves tests and wiring code that cannot
// fail.
package logging
