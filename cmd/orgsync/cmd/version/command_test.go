package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/application"
)

func TestVersion(t *testing.T) {
	cmd := NewCommand(&application.Mock{VersionFunc: func() string { return "1.2.3" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "orgsync version 1.2.3")
	assert.Contains(t, out.String(), "go version:")
}
