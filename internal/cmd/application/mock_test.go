package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	app "github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/application"
)

var _ app.Application = (*application.Mock)(nil)

func TestMockDefaults(t *testing.T) {
	m := &application.Mock{}

	client, err := m.Client()
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, m.Metrics())
	assert.Equal(t, 8000, m.ServerConfig().Port)
	assert.NotNil(t, m.Logger())
	assert.Equal(t, "json", m.OutputFormat())
	assert.Equal(t, "dev", m.Version())
}
