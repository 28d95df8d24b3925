package trade

import (
	"errors"
	"fmt"
)

// ErrUnknownOrder means the order uuid was not in the last fetched
// snapshot. Nothing was sent to the exchange.
var ErrUnknownOrder = errors.New("order not in local snapshot")

// CancelFailedError reports a replace whose cancel step failed. The
// resting order is untouched on the exchange, so the caller can retry or
// simply leave everything as it was.
type CancelFailedError struct {
	OrderUUID string
	Err       error
}

func (e *CancelFailedError) Error() string {
	return fmt.Sprintf("cancel order %s: %v", e.OrderUUID, e.Err)
}

func (e *CancelFailedError) Unwrap() error { return e.Err }

// CreateFailedAfterCancelError reports a replace where the cancel landed
// but the follow-up create did not. The original order is gone and no new
// order exists; the user's intended position is not represented on the
// book. This is the critical case: the coordinator has already forced an
// overlay refresh by the time the caller sees it.
type CreateFailedAfterCancelError struct {
	OrderUUID string
	Market    string
	Err       error
}

func (e *CreateFailedAfterCancelError) Error() string {
	return fmt.Sprintf("order %s cancelled but replacement create failed on %s: %v",
		e.OrderUUID, e.Market, e.Err)
}

func (e *CreateFailedAfterCancelError) Unwrap() error { return e.Err }
