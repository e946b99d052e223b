// Package content holds the literal tables the portfolio is rendered from.
// Tables are read once at startup and never mutated afterwards.
package content

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Landing holds both sides of the blue/green hero.
type Landing struct {
	Blue  Deployment `yaml:"blue" json:"blue"`
	Green Deployment `yaml:"green" json:"green"`
}

// Clouds groups the services floating in the cloud layer.
type Clouds struct {
	AWS   []CloudService `yaml:"aws" json:"aws"`
	Other []CloudService `yaml:"other" json:"other"`
}

// Catalog is every table the page needs.
type Catalog struct {
	Landing    Landing           `yaml:"landing" json:"landing"`
	Containers []TechContainer   `yaml:"containers" json:"containers"`
	Projects   []Project         `yaml:"projects" json:"projects"`
	Clouds     Clouds            `yaml:"clouds" json:"clouds"`
	Gauges     []MetricData      `yaml:"metrics" json:"metrics"`
	Alerts     []Alert           `yaml:"alerts" json:"alerts"`
	Cluster    ClusterSummary    `yaml:"cluster" json:"cluster"`
	Milestones []CareerMilestone `yaml:"milestones" json:"milestones"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	cat, err := Parse(defaultDocument)
	if err != nil {
		// the embedded document is covered by tests
		panic(err)
	}
	return cat
}

// Load reads a catalog override from path. An empty path yields the built-in
// catalog.
func Load(path string) (cat *Catalog, err error) {
	if path == "" {
		cat = Default()
		return cat, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read content file: %s", path)
		return cat, err
	}

	cat, err = Parse(data)
	if err != nil {
		err = errors.Wrapf(err, "invalid content file: %s", path)
		return nil, err
	}

	return cat, err
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, "failed to parse content")
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate enforces the only invariants the tables carry: enum membership,
// gauge values inside [0,100] and exactly one monotonic gauge.
func (c *Catalog) Validate() error {
	if len(c.Containers) == 0 {
		return errors.New("at least one container is required")
	}

	seen := make(map[string]bool, len(c.Projects))
	for _, p := range c.Projects {
		if p.ID == "" {
			return errors.Errorf("project %q has no id", p.Name)
		}
		if seen[p.ID] {
			return errors.Errorf("duplicate project id %q", p.ID)
		}
		seen[p.ID] = true
	}

	monotonic := 0
	for _, m := range c.Gauges {
		if !m.Status.Valid() {
			return errors.Errorf("metric %q: unknown status %q", m.Name, m.Status)
		}
		if m.Value < 0 || m.Value > 100 {
			return errors.Errorf("metric %q: value %.2f outside [0,100]", m.Name, m.Value)
		}
		if m.Monotonic {
			monotonic++
		}
	}
	if monotonic != 1 {
		return errors.Errorf("exactly one monotonic metric is required, found %d", monotonic)
	}

	for _, a := range c.Alerts {
		if !a.Severity.Valid() {
			return errors.Errorf("alert %q: unknown severity %q", a.Message, a.Severity)
		}
	}

	return nil
}

// Metrics returns a fresh copy of the gauges so callers can mutate values
// without touching the catalog.
func (c *Catalog) Metrics() []MetricData {
	out := make([]MetricData, len(c.Gauges))
	copy(out, c.Gauges)
	return out
}

// Project looks a project up by id.
func (c *Catalog) Project(id string) (Project, bool) {
	for _, p := range c.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}
