package models

import "errors"

var (
	ErrEmptySeries    = errors.New("empty price series")
	ErrInvalidDate    = errors.New("invalid date")
	ErrDuplicateDate  = errors.New("duplicate date")
	ErrInvalidPrice   = errors.New("invalid price")
	ErrInvalidVolume  = errors.New("invalid volume")
	ErrMissingColumn  = errors.New("missing required column")
	ErrUnknownColumn  = errors.New("unknown indicator column")
	ErrInvalidSymbol  = errors.New("invalid symbol")
	ErrInvalidRunID   = errors.New("invalid run ID")
	ErrLengthMismatch = errors.New("series length mismatch")
)
