package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slmtnm/s3nav/internal/model"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{model.SizePending, "?"},
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.size), "size %d", tt.size)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, formatDate(time.Time{}))
	d := time.Date(2024, 6, 1, 12, 30, 0, 0, time.Local)
	assert.Equal(t, "2024-06-01 12:30", formatDate(d))
}

func TestMaskKeyID(t *testing.T) {
	assert.Equal(t, "Unknown", maskKeyID(""))
	assert.Equal(t, "SHORTKEY", maskKeyID("SHORTKEY"))
	assert.Equal(t, "...0123456789", maskKeyID("AKIAXXXX0123456789"))
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "Path: /", displayPath(nil))
	assert.Equal(t, "Path: photos/2024", displayPath(model.Path{"photos", "2024"}))
}
