// Package pass allocates pass sequence numbers inside a work directory.
//
// Pass directories are named "<NN>.<identifier>.<MMDD_HHMM>" where NN is a
// two-digit, zero-padded sequence. The directory names themselves are the
// persisted counter: Allocate takes the work-directory lock, scans the
// existing names, picks max+1, and lets the caller create the new directory
// before the lock is dropped. A second allocator that finds the lock held
// fails immediately with ErrAllocationConflict; nothing here waits or
// retries.
//
// Sequences stop at 99. Allocation past that point returns
// ErrSequenceExhausted rather than wrapping.
package pass
