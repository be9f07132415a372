// Package results holds the success-or-failure envelope returned by service operations.
// Business failures travel in Failure; infrastructure errors are returned as Go errors.
package results

// OperationResult carries exactly one of Success or Failure.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](v S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &v}
}

// FailureResult wraps a failure payload.
func FailureResult[S any, F any](v F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &v}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }
func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }
