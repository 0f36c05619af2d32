// Package stream captures writes to the process's standard output and error
// streams and republishes them as discrete messages.
//
// A [Buffer] accumulates bytes for one stream and hands complete lines to a
// [PublishFunc]. A [Redirector] substitutes os.Stdout and os.Stderr with
// pipes whose read ends are pumped into two Buffers, so every write made
// while it is installed is captured: writes from the kernel itself, from
// interpreted user code, from goroutines that code spawns, and from child
// processes that inherit the standard streams.
//
// The redirector is a process-wide resource. At most one may be installed at
// a time; install it when a session starts and Restore it on every exit path.
//
//	r := stream.NewRedirector(
//	    func(s string) { pub.PublishStream("stdout", s) },
//	    func(s string) { pub.PublishStream("stderr", s) },
//	)
//	if err := r.Install(); err != nil {
//	    return err
//	}
//	defer r.Restore()
package stream
