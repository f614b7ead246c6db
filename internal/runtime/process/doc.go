// Package process provides a spawner that runs dev watchers as local processes.
//
// Every watcher is started in its own process group so that terminating a
// watcher also reaches the programs it launched (cargo-watch runs the
// application binary, npx runs node). Full process-group termination is only
// guaranteed on unix platforms. On Windows the handle interrupts and, if
// necessary, kills only the direct child; grandchildren may survive and must
// be cleaned up separately.
//
// Each handle owns one reaper goroutine that waits on the child and publishes
// its exit status. This makes TryWait non-blocking and lets TerminateAndWait
// block on the same result without reaping the process twice.
package process
