package token

import "errors"

var (
	ErrAssetNotFound       = errors.New("token: asset not found")
	ErrAssetExists         = errors.New("token: asset already issued")
	ErrInvalidMetadata     = errors.New("token: invalid metadata")
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientHolding = errors.New("token: insufficient holding")
	ErrHoldingOverflow     = errors.New("token: holding overflow")
	ErrCollectionNotFound  = errors.New("token: collection not found")
	errNilState            = errors.New("token engine: state not configured")
)
