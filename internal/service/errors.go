package service

import "errors"

var (
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrSlotTaken          = errors.New("a slot already exists for that time")
	ErrAlreadyBooked      = errors.New("slot is already booked by another student")
	ErrClassNotFound      = errors.New("ticket class not found")
	ErrNotEnrolled        = errors.New("student is not enrolled in this class")
	ErrAlreadyEnrolled    = errors.New("student already has a request or enrollment for this class")
	ErrClassFull          = errors.New("ticket class is full")
	ErrPaymentRequired    = errors.New("cancellation requires paying the cancellation fee")
	ErrInvalidStatus      = errors.New("unknown student status")
)
