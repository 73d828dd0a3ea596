//go:build gcp

package provider

import (
	"github.com/mcman-io/mcman/pkg/source"
	"github.com/mcman-io/mcman/providers/gcs"
)

func newGCSProvider() (source.Source, error) {
	return gcs.New(), nil
}
