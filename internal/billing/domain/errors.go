package billing

import "errors"

var (
	// ErrEmptyCompanyID is returned when company id is empty.
	ErrEmptyCompanyID = errors.New("billing: empty company id")
	// ErrEmptyUserID is returned when user id is empty.
	ErrEmptyUserID = errors.New("billing: empty user id")
	// ErrInvalidPeriod is returned when the period is zero or inverted.
	ErrInvalidPeriod = errors.New("billing: invalid period")
	// ErrInvalidStatus is returned for an unknown billing status.
	ErrInvalidStatus = errors.New("billing: invalid status")
	// ErrDuplicateService is returned when a config lists a service id twice.
	ErrDuplicateService = errors.New("billing: duplicate service id")
	// ErrNilBilling is returned when saving a nil billing record.
	ErrNilBilling = errors.New("billing: nil billing")
	// ErrNotFound is returned when a billing or config is not found.
	ErrNotFound = errors.New("billing: not found")
)
