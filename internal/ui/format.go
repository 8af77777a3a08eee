package ui

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/slmtnm/s3nav/internal/model"
)

const (
	dateLayout   = "2006-01-02 15:04"
	keyIDVisible = 10
	unknownKeyID = "Unknown"
)

// formatSize renders a byte count. Sizes not yet computed render as "?".
func formatSize(size int64) string {
	if size < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(size))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func kindIcon(k model.Kind) string {
	switch k {
	case model.KindContainer:
		return "🪣"
	case model.KindDirectory:
		return "📁"
	case model.KindFile:
		return "📄"
	case model.KindError:
		return "⚠"
	case model.KindInfo:
		return "ℹ"
	}
	return ""
}

// maskKeyID shows only the tail of an access key id.
func maskKeyID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return unknownKeyID
	}
	if len(id) <= keyIDVisible {
		return id
	}
	return "..." + id[len(id)-keyIDVisible:]
}

func displayPath(p model.Path) string {
	if p.Empty() {
		return "Path: /"
	}
	return "Path: " + p.String()
}
