package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "postcodes", ID: "NSW"}
		assert.Equal(t, "postcodes NSW not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("abn", "12345678901")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestInvalidSourceError(t *testing.T) {
	err := pkgerrors.NewInvalidSourceError("xyz", []string{"nsw", "acnc", "abn"})
	assert.Equal(t, "Invalid source. Valid sources are: nsw, acnc, abn", err.Error())
	assert.True(t, pkgerrors.IsInvalidSource(err))
	assert.True(t, pkgerrors.IsValidationError(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestSourceUnavailableError(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  *pkgerrors.SourceUnavailableError
		want string
	}{
		{
			name: "with postcode",
			err:  pkgerrors.NewSourceUnavailableError("acnc", "NSW", "2000", cause),
			want: "source acnc unavailable for NSW/2000: connection reset",
		},
		{
			name: "with state",
			err:  pkgerrors.NewSourceUnavailableError("abn", "VIC", "", cause),
			want: "source abn unavailable for VIC: connection reset",
		},
		{
			name: "bare",
			err:  pkgerrors.NewSourceUnavailableError("nsw", "", "", cause),
			want: "source nsw unavailable: connection reset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsSourceUnavailable(tt.err))
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestAPIError(t *testing.T) {
	t.Run("server error is unavailable", func(t *testing.T) {
		err := pkgerrors.NewAPIError("acnc", 503, "service unavailable")
		assert.Contains(t, err.Error(), "503")
		assert.True(t, pkgerrors.IsSourceUnavailable(err))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		err := pkgerrors.NewAPIError("nsw", 429, "slow down")
		assert.True(t, pkgerrors.IsRateLimited(err))
	})
}

func TestValidationError(t *testing.T) {
	err := pkgerrors.NewValidationError("file", "x.txt", "must be a CSV")
	assert.Equal(t, "validation failed for field file: must be a CSV", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))

	bare := &pkgerrors.ValidationError{Message: "no valid postcodes"}
	assert.Equal(t, "validation failed: no valid postcodes", bare.Error())
}

func TestMergeError(t *testing.T) {
	base := errors.New("constraint violation")
	err := pkgerrors.NewMergeError("upsert", []string{"111", "name:FOO"}, base)
	assert.Contains(t, err.Error(), "name:FOO")
	assert.ErrorIs(t, err, base)

	noKeys := pkgerrors.NewMergeError("upsert", nil, base)
	assert.Equal(t, "merge error during upsert: constraint violation", noKeys.Error())
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("disk full")

	ioErr := pkgerrors.WrapIO("write", "/tmp/out.csv", base)
	var target *pkgerrors.IOError
	require.True(t, errors.As(ioErr, &target))
	assert.Equal(t, "write", target.Operation)
	assert.Equal(t, "IO error during write of /tmp/out.csv: disk full", ioErr.Error())

	parseErr := pkgerrors.WrapParse("xml", "", base)
	assert.Equal(t, "xml parse error: disk full", parseErr.Error())

	assert.NoError(t, pkgerrors.WrapIO("write", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("xml", "", nil))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("abn", "PRIVATE_ABN_SEARCH_GUID is not set", nil)
	assert.Equal(t, "configuration error in abn: PRIVATE_ABN_SEARCH_GUID is not set", err.Error())
}
