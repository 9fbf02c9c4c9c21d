package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	billing "fulfillment-billing/internal/billing/domain"
)

// Default returns the stock service catalog served to companies without
// a stored billing configuration. Prices start at zero; operators set
// real rates per company.
func Default() []billing.ServiceDefinition {
	return []billing.ServiceDefinition{
		{
			ID:          billing.ServiceIDFBS,
			Name:        "FBS Processing",
			Enabled:     true,
			Price:       0,
			Unit:        billing.UnitPieces,
			Description: "Per-unit fee for goods received into fulfillment",
		},
		{
			ID:          billing.ServiceIDFBO,
			Name:        "FBO Processing",
			Enabled:     true,
			Price:       0,
			Unit:        billing.UnitPieces,
			Description: "Per-unit fee for marketplace-fulfilled orders",
		},
		{
			ID:          billing.ServiceIDStorage,
			Name:        "Storage",
			Enabled:     false,
			Price:       0,
			Unit:        billing.UnitStorage,
			Description: "Monthly fee per square meter of occupied storage",
		},
		{
			ID:          billing.ServiceIDHandling,
			Name:        "Order Handling",
			Enabled:     false,
			Price:       0,
			Unit:        billing.UnitOrder,
			Description: "Per-order fee for picking and packing",
		},
	}
}

type catalogFile struct {
	Services []billing.ServiceDefinition `yaml:"services"`
}

// Load reads a catalog override from a YAML file. An empty path returns
// the default catalog.
func Load(path string) ([]billing.ServiceDefinition, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("catalog: %s defines no services", path)
	}

	seen := make(map[string]struct{}, len(file.Services))
	for _, svc := range file.Services {
		if err := svc.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", path, err)
		}
		if _, dup := seen[svc.ID]; dup {
			return nil, fmt.Errorf("catalog: %s: %w", path, billing.ErrDuplicateService)
		}
		seen[svc.ID] = struct{}{}
	}
	return file.Services, nil
}
