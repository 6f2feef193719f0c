package session

// Result is the outcome of one submission: exactly one of RedirectURL or
// Failure is set.
type Result struct {
	RedirectURL string
	Failure     *Failure
}

func Succeeded(redirectURL string) Result {
	return Result{RedirectURL: redirectURL}
}

func Failed(kind Kind, message string) Result {
	return Result{Failure: NewFailure(kind, message)}
}

// FailedWith wraps an existing error, keeping its kind when it is a Failure.
func FailedWith(err error, fallback Kind) Result {
	return Result{Failure: AsFailure(err, fallback)}
}

func (r Result) IsSuccess() bool {
	return r.Failure == nil && r.RedirectURL != ""
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
