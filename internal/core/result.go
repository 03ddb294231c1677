package core

// Result is the outcome of applying one step. Beside the error it tells
// whether anything changed and what to show the user.
type Result struct {
	Changed bool
	Failed  bool
	Message string
	Error   error

	// ExitCode of the command that was run, -1 if none ran.
	ExitCode int
}

// SuccessChange returns a successful result that changed the system.
func SuccessChange(msg string, exitCode int) Result {
	return Result{
		Changed:  true,
		Message:  msg,
		ExitCode: exitCode,
	}
}

// SuccessNoChange returns a successful result that left the system as it was.
func SuccessNoChange(msg string) Result {
	return Result{
		Message:  msg,
		ExitCode: -1,
	}
}

// Failure returns a failed result.
func Failure(err error, msg string) Result {
	return Result{
		Failed:   true,
		Message:  msg,
		Error:    err,
		ExitCode: -1,
	}
}
