package storage

import "errors"

// ErrInsufficientFunds is returned when a debit would drive a wallet
// balance below zero. The check and the debit are one conditional
// UPDATE, so no partial state is ever written.
var ErrInsufficientFunds = errors.New("insufficient funds")
