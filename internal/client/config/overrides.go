package config

// Overrides are values given on the command line. They win over every other
// source; empty fields are ignored.
type Overrides struct {
	DatabasePath string
	Backend      string
	LogLevel     string
}

// Apply copies the set fields of o into c.
func (o Overrides) Apply(c *Config) {
	if o.DatabasePath != "" {
		c.DatabasePath = o.DatabasePath
	}
	if o.Backend != "" {
		c.Backend = o.Backend
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}
