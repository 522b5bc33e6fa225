package auctionerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("service unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with message msg that matches kind under errors.Is
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Newf is New with formatting
func Newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrapf adds detail to base. The result matches base and its kind under errors.Is.
func Wrapf(base error, format string, args ...any) error {
	return &kindError{kind: base, msg: base.Error() + ": " + fmt.Sprintf(format, args...)}
}

// Message returns the outermost domain message in err's chain, safe to show to clients
func Message(err error) (string, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg, true
	}
	return "", false
}

// Repository-level errors
var (
	ErrAuctionNotFound      = New(ErrNotFound, "auction not found")
	ErrOrderNotFound        = New(ErrNotFound, "order not found")
	ErrNotificationNotFound = New(ErrNotFound, "notification not found")
)

// bidding errors
var (
	ErrNotAnAuction     = New(ErrInvalidOperation, "product is not an auction")
	ErrAuctionNotActive = New(ErrInvalidOperation, "auction is not active")
	ErrAuctionEnded     = New(ErrInvalidOperation, "auction has ended")
	ErrOwnerBid         = New(ErrForbidden, "owner cannot bid on their own auction")
	ErrInvalidBid       = New(ErrInvalidInput, "invalid bid")
	ErrBidTooLow        = New(ErrInvalidInput, "bid amount too low")
	ErrInvalidProduct   = New(ErrInvalidInput, "invalid product")
)

// settlement errors
var (
	ErrNotExpired         = New(ErrInvalidOperation, "auction has not expired yet")
	ErrSettlementInFlight = New(ErrConflict, "settlement in progress")
)

// payment and order errors
var (
	ErrAlreadyPaid        = New(ErrConflict, "auction already paid")
	ErrNotSettled         = New(ErrInvalidOperation, "auction has not been settled")
	ErrAuctionNotEnded    = New(ErrInvalidOperation, "auction has not ended")
	ErrNotWinner          = New(ErrForbidden, "caller is not the winning bidder")
	ErrBidMismatch        = New(ErrInvalidInput, "winning bid amount does not match")
	ErrInvalidShipping    = New(ErrInvalidInput, "invalid shipping address")
	ErrInvalidSignature   = New(ErrInvalidInput, "invalid webhook signature")
	ErrInvalidTransition  = New(ErrInvalidOperation, "invalid order status transition")
	ErrOrderAccess        = New(ErrForbidden, "not a party to this order")
	ErrPaymentUnavailable = New(ErrUnavailable, "payment provider unavailable")
)
