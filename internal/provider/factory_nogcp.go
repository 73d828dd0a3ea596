//go:build !gcp

package provider

import (
	"fmt"

	"github.com/mcman-io/mcman/pkg/source"
)

func newGCSProvider() (source.Source, error) {
	return nil, fmt.Errorf("gs:// artifacts are not enabled in this build (use -tags gcp)")
}
