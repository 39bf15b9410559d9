package postcodes

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

func run(t *testing.T, client etl.Client, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&application.Mock{
		ClientFunc:       func() (etl.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUploadAndList(t *testing.T) {
	client, err := etl.New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nsw.csv")
	require.NoError(t, os.WriteFile(path, []byte("postcode,suburb\n2000,Sydney\n2001,Sydney\n2000,Sydney\n"), 0o600))

	out, err := run(t, client, "json", "upload", "nsw", path)
	require.NoError(t, err)

	var upload etl.UploadResult
	require.NoError(t, json.Unmarshal([]byte(out), &upload))
	assert.Equal(t, "NSW", upload.State)
	assert.Equal(t, 2, upload.TotalPostcodes)
	assert.Equal(t, "Successfully uploaded 2 postcodes for NSW", upload.Message)

	out, err = run(t, client, "table", "list", "NSW")
	require.NoError(t, err)
	assert.Contains(t, out, "2000")
	assert.Contains(t, out, "2001")
}

func TestUploadRejectsNonCSV(t *testing.T) {
	client, err := etl.New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nsw.txt")
	require.NoError(t, os.WriteFile(path, []byte("2000\n"), 0o600))

	_, err = run(t, client, "json", "upload", "NSW", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File must be a CSV")
}

func TestUploadMissingFile(t *testing.T) {
	client, err := etl.New()
	require.NoError(t, err)

	_, err = run(t, client, "json", "upload", "NSW", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestListUnknownState(t *testing.T) {
	client, err := etl.New()
	require.NoError(t, err)

	_, err = run(t, client, "json", "list", "TAS")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
