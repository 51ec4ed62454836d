// Package config provides configuration structures and loading for dbsample.
package config

// DefaultModifierKey is the QUERY_MODIFIERS entry that applies to every
// table without a modifier of its own.
const DefaultModifierKey = "_default"

// Config represents the complete sampling run configuration.
type Config struct {
	SourceDatabaseURL string                   `yaml:"SOURCE_DATABASE_URL" mapstructure:"SOURCE_DATABASE_URL"`
	TargetDatabaseURL string                   `yaml:"TARGET_DATABASE_URL" mapstructure:"TARGET_DATABASE_URL"`
	IgnoreTables      []string                 `yaml:"IGNORE_TABLES" mapstructure:"IGNORE_TABLES"`
	ExtendRelations   []RelationRef            `yaml:"EXTEND_RELATIONS" mapstructure:"EXTEND_RELATIONS"`
	IgnoreRelations   []RelationRef            `yaml:"IGNORE_RELATIONS" mapstructure:"IGNORE_RELATIONS"`
	QueryModifiers    map[string]QueryModifier `yaml:"QUERY_MODIFIERS" mapstructure:"QUERY_MODIFIERS"`
	OutputDirectory   string                   `yaml:"OUTPUT_DIRECTORY" mapstructure:"OUTPUT_DIRECTORY"`
	Sampling          SamplingConfig           `yaml:"sampling" mapstructure:"sampling"`
	Logging           LoggingConfig            `yaml:"logging" mapstructure:"logging"`
}

// RelationRef references a foreign key relation by its two ends, each in
// "table.column" form. Used by both IGNORE_RELATIONS and EXTEND_RELATIONS.
type RelationRef struct {
	PK string `yaml:"pk" mapstructure:"pk"` // referenced (parent) column
	FK string `yaml:"fk" mapstructure:"fk"` // referencing (child) column
}

// QueryModifier narrows the rows considered for a table: raw SQL boolean
// conditions (ANDed together) and an optional row limit. An absent limit
// inherits the default modifier's; an explicit 0 means unlimited, letting
// a table opt out of a default cap.
type QueryModifier struct {
	Conditions []string `yaml:"conditions" mapstructure:"conditions"`
	Limit      *int     `yaml:"limit" mapstructure:"limit"`
}

// Limit builds the pointer form used by QueryModifier literals.
func Limit(n int) *int { return &n }

// SamplingConfig tunes how the sampling pipeline executes.
type SamplingConfig struct {
	Schema             string `yaml:"schema" mapstructure:"schema"`                             // source schema to introspect, default "public"
	Workers            int    `yaml:"workers" mapstructure:"workers"`                           // table pipeline worker pool size
	BatchSize          int    `yaml:"batch_size" mapstructure:"batch_size"`                     // keys per IN clause chunk
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`           // per pool
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"` // per pool
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		QueryModifiers: map[string]QueryModifier{},
		Sampling: SamplingConfig{
			Schema:             "public",
			Workers:            4,
			BatchSize:          1000,
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Modifier returns the query modifier for a table along with whether one
// was explicitly configured.
func (c *Config) Modifier(table string) (QueryModifier, bool) {
	m, ok := c.QueryModifiers[table]
	return m, ok
}

// DefaultModifier returns the `_default` query modifier, zero-valued when
// absent.
func (c *Config) DefaultModifier() QueryModifier {
	return c.QueryModifiers[DefaultModifierKey]
}

// ApplyOverrides applies CLI flag overrides to the configuration. Only
// non-zero values take effect.
func (c *Config) ApplyOverrides(logLevel, logFormat string, workers int) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if workers > 0 {
		c.Sampling.Workers = workers
	}
}
