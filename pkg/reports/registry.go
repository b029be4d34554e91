package reports

import (
	"fmt"
)

// Config selects the report definitions available to the pipeline. Entries in
// Reports whose name matches a built-in report override that report's non-empty
// fields; other entries add new reports.
type Config struct {
	DisableBuiltins bool         `yaml:"disableBuiltins"`
	Reports         []ReportSpec `yaml:"reports"`
}

// Registry is an ordered, validated set of report definitions
type Registry struct {
	order []string
	specs map[string]ReportSpec
}

// NewRegistry validates specs and indexes them by name in the given order
func NewRegistry(specs ...ReportSpec) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(specs)),
		specs: make(map[string]ReportSpec, len(specs)),
	}

	for i := range specs {
		spec := specs[i]
		spec.SetDefaults()

		if err := spec.Validate(); err != nil {
			return nil, err
		}

		if _, exists := r.specs[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReport, spec.Name)
		}

		r.order = append(r.order, spec.Name)
		r.specs[spec.Name] = spec
	}

	return r, nil
}

// Load builds the registry described by cfg
func Load(cfg Config) (*Registry, error) {
	var base []ReportSpec
	if !cfg.DisableBuiltins {
		base = Builtins()
	}

	index := make(map[string]int, len(base))
	for i, spec := range base {
		index[spec.Name] = i
	}

	seen := make(map[string]struct{}, len(cfg.Reports))

	for _, override := range cfg.Reports {
		if override.Name == "" {
			return nil, ErrNameRequired
		}

		if _, dup := seen[override.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateReport, override.Name)
		}

		seen[override.Name] = struct{}{}

		if i, ok := index[override.Name]; ok {
			base[i] = base[i].merge(override)

			continue
		}

		index[override.Name] = len(base)
		base = append(base, override)
	}

	return NewRegistry(base...)
}

// Get returns the report with the given name
func (r *Registry) Get(name string) (ReportSpec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return ReportSpec{}, fmt.Errorf("%w: %s", ErrReportNotFound, name)
	}

	return spec, nil
}

// Names returns report names in declaration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Specs returns all reports in declaration order
func (r *Registry) Specs() []ReportSpec {
	out := make([]ReportSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}

	return out
}
