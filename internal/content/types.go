package content

import "fmt"

// Status is the health state shown next to a dashboard gauge.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

func (s Status) Valid() bool {
	switch s {
	case StatusHealthy, StatusWarning, StatusCritical:
		return true
	}
	return false
}

// Severity classifies an entry in the alert feed.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Project is one island in the project showcase.
type Project struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Problem     string   `yaml:"problem" json:"problem"`
	Stack       []string `yaml:"stack" json:"stack"`
	GithubURL   string   `yaml:"github_url,omitempty" json:"github_url,omitempty"`
	DemoURL     string   `yaml:"demo_url,omitempty" json:"demo_url,omitempty"`
	Glyph       string   `yaml:"glyph" json:"glyph"`
}

// CareerMilestone is one stop on the career timeline.
type CareerMilestone struct {
	Year        string `yaml:"year" json:"year"`
	Role        string `yaml:"role" json:"role"`
	Company     string `yaml:"company" json:"company"`
	Description string `yaml:"description" json:"description"`
	Glyph       string `yaml:"glyph" json:"glyph"`
}

// MetricData is a fabricated dashboard gauge. Value is the only field the
// metric ticker ever changes.
type MetricData struct {
	Name      string  `yaml:"name" json:"name"`
	Value     float64 `yaml:"value" json:"value"`
	Unit      string  `yaml:"unit" json:"unit"`
	Status    Status  `yaml:"status" json:"status"`
	Glyph     string  `yaml:"glyph" json:"glyph"`
	Monotonic bool    `yaml:"monotonic,omitempty" json:"monotonic,omitempty"`
}

// Display formats the value the way the dashboard prints it.
func (m MetricData) Display() string {
	return fmt.Sprintf("%.1f%s", m.Value, m.Unit)
}

type Alert struct {
	Message  string   `yaml:"message" json:"message"`
	Severity Severity `yaml:"severity" json:"severity"`
	Time     string   `yaml:"time" json:"time"`
}

// TechContainer is one crate of cargo on the container ship.
type TechContainer struct {
	Name        string `yaml:"name" json:"name"`
	Glyph       string `yaml:"glyph" json:"glyph"`
	Color       string `yaml:"color" json:"color"`
	Description string `yaml:"description" json:"description"`
}

type CloudService struct {
	Name        string `yaml:"name" json:"name"`
	Glyph       string `yaml:"glyph" json:"glyph"`
	Description string `yaml:"description" json:"description"`
}

// Deployment is one half of the blue/green landing.
type Deployment struct {
	Heading string   `yaml:"heading" json:"heading"`
	Role    string   `yaml:"role" json:"role"`
	Summary string   `yaml:"summary" json:"summary"`
	Stack   []string `yaml:"stack" json:"stack"`
	Action  string   `yaml:"action" json:"action"`
}

type ClusterSummary struct {
	Nodes    int `yaml:"nodes" json:"nodes"`
	Pods     int `yaml:"pods" json:"pods"`
	Services int `yaml:"services" json:"services"`
}
