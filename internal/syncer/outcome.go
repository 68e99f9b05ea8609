package syncer

import (
	"context"
	"errors"

	"installment-tracker/internal/core"
	"installment-tracker/internal/remote"
)

// Status is the caller-visible classification of a coordinator operation.
type Status string

const (
	StatusOK Status = "ok"
	// StatusBusy: another generate/commit is in flight for the same sale.
	// Retry once it finishes.
	StatusBusy Status = "busy"
	// StatusInvalid: input rejected locally, no remote call was made.
	StatusInvalid Status = "invalid"
	// StatusUnauthenticated: missing or expired credential — sign in again.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusRetryable: the remote store was unreachable or faulted. Local
	// state is untouched and the operation may simply be retried.
	StatusRetryable Status = "retryable"
	// StatusRejected: the remote store refused the request. Message carries
	// the server's reason verbatim.
	StatusRejected Status = "rejected"
)

// Outcome is the structured result of every coordinator operation. The
// coordinator never returns a bare error across its public boundary so
// callers can drive UI state uniformly.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (o Outcome) OK() bool { return o.Status == StatusOK }

// Retryable reports whether the user should be offered a retry prompt.
func (o Outcome) Retryable() bool {
	return o.Status == StatusRetryable || o.Status == StatusBusy
}

func ok() Outcome {
	return Outcome{Status: StatusOK}
}

func invalid(message string, err error) Outcome {
	return Outcome{Status: StatusInvalid, Message: message, Err: err}
}

func busy(message string) Outcome {
	return Outcome{Status: StatusBusy, Message: message}
}

// Classify maps an error from the core or remote layers onto an Outcome.
// Context cancellation lands in StatusRetryable: the caller abandoned the
// operation and will not read the outcome anyway, but the invariant that
// local state stayed untouched still holds.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return ok()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return Outcome{Status: StatusRetryable, Message: "operation canceled", Err: err}
	case errors.Is(err, core.ErrValidation):
		return Outcome{Status: StatusInvalid, Message: err.Error(), Err: err}
	case remote.IsKind(err, remote.KindAuth):
		return Outcome{Status: StatusUnauthenticated, Message: remoteMessage(err), Err: err}
	case remote.IsKind(err, remote.KindRejected):
		return Outcome{Status: StatusRejected, Message: remoteMessage(err), Err: err}
	default:
		return Outcome{Status: StatusRetryable, Message: remoteMessage(err), Err: err}
	}
}

func remoteMessage(err error) string {
	var re *remote.RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
