package domain

import "errors"

var (
	ErrInvalidData    = errors.New("invalid data provided for new order operations")
	ErrUnknownRank    = errors.New("unknown rank")
	ErrPayoutNotFound = errors.New("no payout run recorded")
	ErrUnhandled      = errors.New("unexpected error")
)
