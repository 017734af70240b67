package auction

import "fmt"

// Reason is the machine-readable rejection code attached to every
// refused bid and failed join. Clients branch on the reason; the
// message is for display only.
type Reason string

const (
    ReasonUnauthenticated Reason = "unauthenticated"
    ReasonRoomNotFound    Reason = "room-not-found"
    ReasonAuctionEnded    Reason = "auction-ended"
    ReasonInvalidAmount   Reason = "invalid-amount"
    ReasonBidTooLow       Reason = "bid-too-low"
    ReasonServerError     Reason = "server-error"
)

// Rejection describes why a bid was not admitted. For bid-too-low
// rejections, Current carries the highest amount at the moment the
// decision was made so the client can correct and resubmit without a
// reload.
type Rejection struct {
    Reason     Reason
    Message    string
    Current    float64 // set when HasCurrent
    HasCurrent bool
}

func (r *Rejection) Error() string {
    return fmt.Sprintf("bid rejected (%s): %s", r.Reason, r.Message)
}

func reject(reason Reason, msg string) *Rejection {
    return &Rejection{Reason: reason, Message: msg}
}

func rejectTooLow(current float64) *Rejection {
    return &Rejection{
        Reason:     ReasonBidTooLow,
        Message:    fmt.Sprintf("your bid must be higher than the current bid of %.2f", current),
        Current:    current,
        HasCurrent: true,
    }
}
