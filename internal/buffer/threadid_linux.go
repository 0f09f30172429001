//go:build linux

package buffer

import "syscall"

// CurrentThreadID returns the OS thread id of the calling goroutine. Go
// does not pin goroutines to OS threads, so this identifies the thread
// servicing the call at the moment the record is built, not a stable
// per-goroutine identity — the same information a %t flag would have
// carried in the original source.
func CurrentThreadID() uint64 {
	return uint64(syscall.Gettid())
}
