package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.SourceDatabaseURL = "postgres://localhost/source"
	cfg.TargetDatabaseURL = "postgres://localhost/target"
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingURLs(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_DATABASE_URL")
	assert.Contains(t, err.Error(), "TARGET_DATABASE_URL")
}

func TestValidate_InvalidIgnoreTable(t *testing.T) {
	cfg := validConfig()
	cfg.IgnoreTables = []string{"users; DROP TABLE users"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGNORE_TABLES[0]")
}

func TestValidate_MalformedRelationRef(t *testing.T) {
	cfg := validConfig()
	cfg.IgnoreRelations = []RelationRef{{PK: "no_dot", FK: "client.favorite_product_id"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGNORE_RELATIONS[0].pk")
}

func TestValidate_NegativeModifierLimit(t *testing.T) {
	cfg := validConfig()
	cfg.QueryModifiers["users"] = QueryModifier{Limit: Limit(-1)}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUERY_MODIFIERS[users].limit")
}

func TestValidate_EmptyCondition(t *testing.T) {
	cfg := validConfig()
	cfg.QueryModifiers["users"] = QueryModifier{Conditions: []string{"  "}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conditions[0]")
}

func TestValidate_DefaultModifierKeyAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.QueryModifiers[DefaultModifierKey] = QueryModifier{Limit: Limit(300)}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_WorkersAndBatchSize(t *testing.T) {
	cfg := validConfig()
	cfg.Sampling.Workers = 0
	cfg.Sampling.BatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling.workers")
	assert.Contains(t, err.Error(), "sampling.batch_size")
}
