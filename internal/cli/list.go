package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slmtnm/s3nav/internal/config"
	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/storage"
)

// Record is one listed entry in headless output.
type Record struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Size     *int64 `json:"size,omitempty" yaml:"size,omitempty"`
	Modified string `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// Listing is the document printed by --list.
type Listing struct {
	Path    string   `json:"path" yaml:"path"`
	Items   []Record `json:"items" yaml:"items"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// errListingFailed marks a listing that produced an error banner.
var errListingFailed = errors.New("listing failed")

type lister interface {
	ListContainers(ctx context.Context) []model.Item
	ListItems(ctx context.Context, bucket, prefix string) []model.Item
}

var _ lister = (*storage.Client)(nil)

// runList prints the listing at path and exits. An error banner is printed
// as the message and reported as a failure.
func runList(ctx context.Context, client lister, path model.Path, format string, w io.Writer) error {
	var items []model.Item
	if path.Empty() {
		items = client.ListContainers(ctx)
	} else {
		items = client.ListItems(ctx, path.Container(), path.Prefix())
	}
	items = model.Sort(items, model.SortState{})

	out := Listing{Path: "/" + path.String(), Items: []Record{}}
	var failed error
	for _, it := range items {
		switch {
		case it.Kind == model.KindError:
			out.Message = it.Name
			failed = fmt.Errorf("%w: %s", errListingFailed, it.Name)
		case it.Kind == model.KindInfo:
			out.Message = it.Name
		case it.IsParent():
		default:
			out.Items = append(out.Items, record(it))
		}
	}

	if err := encode(w, format, out); err != nil {
		return err
	}
	return failed
}

func record(it model.Item) Record {
	r := Record{Name: it.Name, Type: it.Kind.String()}
	if it.Size != model.SizePending {
		size := it.Size
		r.Size = &size
	}
	if !it.ModifiedAt.IsZero() && it.Kind != model.KindDirectory {
		r.Modified = it.ModifiedAt.UTC().Format(time.RFC3339)
	}
	return r
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
