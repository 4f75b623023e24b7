package process

import "time"

// Status is the terminal outcome of an invocation.
type Status int

const (
	// StatusSucceeded means the process exited with code 0.
	StatusSucceeded Status = iota + 1
	// StatusFailed means the process exited with a nonzero code.
	StatusFailed
	// StatusTimedOut means the deadline fired and the process was killed.
	StatusTimedOut
	// StatusLaunchError means the process could not be started.
	StatusLaunchError
	// StatusStreamError means reading output failed mid-run.
	StatusStreamError
	// StatusCanceled means the caller's context ended the run.
	StatusCanceled
)

var statusNames = map[Status]string{
	StatusSucceeded:   "succeeded",
	StatusFailed:      "failed",
	StatusTimedOut:    "timed_out",
	StatusLaunchError: "launch_error",
	StatusStreamError: "stream_error",
	StatusCanceled:    "canceled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Result holds the outcome of one invocation.
type Result struct {
	// InvocationID echoes Invocation.ID.
	InvocationID string
	// SubCommand echoes Invocation.SubCommand.
	SubCommand SubCommand
	// Status is the terminal outcome.
	Status Status
	// ExitCode is the process exit code. -1 if the process never exited on its own.
	ExitCode int
	// Duration is how long the invocation took.
	Duration time.Duration
	// StdoutLines and StderrLines count the lines delivered to the sink.
	StdoutLines int
	StderrLines int
	// Err describes every status except StatusSucceeded.
	Err error
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.Status == StatusSucceeded }
