package application

import "errors"

var (
	// ErrConfigMissing is returned when generating without a stored
	// billing configuration for the company.
	ErrConfigMissing = errors.New("billing service: no billing config for company")
	// ErrAPIKeyMissing is returned when no marketplace data source can
	// serve the company's API key.
	ErrAPIKeyMissing = errors.New("billing service: no marketplace api key configured")
)
