package transport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSliceStyle(t *testing.T) {
	tests := []struct {
		in   string
		want SliceStyle
	}{
		{"Year", SliceYear},
		{"YEAR", SliceYear},
		{"month", SliceMonth},
		{"Day", SliceDay},
		{"", SliceDay},
		{"hour", SliceDay},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSliceStyle(tt.in))
		})
	}
}

func TestSliceFormatter_Key(t *testing.T) {
	now := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "2026", sliceFormatter{layout: SliceYear.Layout()}.key(now))
	assert.Equal(t, "2026-10", sliceFormatter{layout: SliceMonth.Layout()}.key(now))
	assert.Equal(t, "2026-10-14", sliceFormatter{layout: SliceDay.Layout()}.key(now))
	assert.Equal(t, "Month", SliceMonth.String())
}

func TestReadDelta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	data, err := readDelta(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	data, err = readDelta(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(data))

	data, err = readDelta(path, 10)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = readDelta(path, 11)
	assert.ErrorIs(t, err, errTruncated)

	_, err = readDelta(filepath.Join(t.TempDir(), "missing.log"), 0)
	assert.Error(t, err)
}
