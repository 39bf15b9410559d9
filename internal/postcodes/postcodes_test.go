package postcodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "postcode column",
			content: "suburb,postcode\nSydney, 2000\nHaymarket,2000\nUltimo,2007\nBad,abc\n",
			want:    []string{"2000", "2007"},
		},
		{
			name:    "first column",
			content: "2000,Sydney\n\"2010\",Surry Hills\nheader,x\n\n2000,dup\n",
			want:    []string{"2000", "2010"},
		},
		{
			name:    "single line of values",
			content: "2000",
			want:    []string{"2000"},
		},
		{
			name:    "malformed csv falls back to loose split",
			content: "postcode\n\"2000\n2001,2002\n",
			want:    []string{"2000", "2001", "2002"},
		},
		{
			name:    "no digits",
			content: "postcode\nabc\n",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemory(time.Minute, time.Minute))
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	_, err := store.Get(ctx, "nsw")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	payload, err := store.Put(ctx, "nsw", []string{"2010", "2000", "2010"})
	require.NoError(t, err)
	assert.Equal(t, "NSW", payload.State)
	assert.Equal(t, []string{"2010", "2000"}, payload.Postcodes)
	assert.Equal(t, 2, payload.TotalPostcodes)
	assert.Equal(t, fixed, payload.UploadTimestamp)

	got, err := store.Get(ctx, "NSW")
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "2010"}, got)

	_, err = store.Put(ctx, "nsw", nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = store.Put(ctx, " ", []string{"2000"})
	assert.True(t, errors.IsValidationError(err))
}
