package billing

import "errors"

// Reserved service ids with dedicated calculation rules. "fbs" and "fbo"
// are grouping markers only and never price a line themselves.
const (
	ServiceIDFBS      = "fbs"
	ServiceIDFBO      = "fbo"
	ServiceIDStorage  = "storage"
	ServiceIDHandling = "handling"
)

// Default billing units applied when a service definition leaves unit empty.
const (
	UnitPieces  = "pcs"
	UnitOrder   = "order"
	UnitStorage = "m²"
)

// ServiceKind classifies a service definition for calculation dispatch.
type ServiceKind int

const (
	// KindGeneric services are priced per shipped unit, split by FBS/FBO.
	KindGeneric ServiceKind = iota
	// KindReservedMarker ids exist only to group generic lines downstream.
	KindReservedMarker
	// KindStorage is priced by occupied area pro-rated to a monthly rate.
	KindStorage
	// KindHandling is priced per non-cancelled order.
	KindHandling
)

// ServiceDefinition is one toggleable priced service from a company's
// billing configuration.
type ServiceDefinition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Enabled     bool    `json:"enabled"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Kind resolves the calculation dispatch for this definition.
func (s ServiceDefinition) Kind() ServiceKind {
	switch s.ID {
	case ServiceIDFBS, ServiceIDFBO:
		return KindReservedMarker
	case ServiceIDStorage:
		return KindStorage
	case ServiceIDHandling:
		return KindHandling
	default:
		return KindGeneric
	}
}

// Validate checks service definition invariants.
func (s ServiceDefinition) Validate() error {
	if s.ID == "" {
		return errors.New("service: empty id")
	}
	if s.Name == "" {
		return errors.New("service: empty name")
	}
	if s.Price < 0 {
		return errors.New("service: negative price")
	}
	return nil
}
