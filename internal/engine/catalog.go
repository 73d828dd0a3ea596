package engine

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/mcman-io/mcman/internal/ir"
)

// VersionSummary describes one catalog version.
type VersionSummary struct {
	ID        string
	Java      string
	Server    bool
	ModLoader bool
	Mods      int
}

// ListVersions returns the catalog's versions, newest release first.
// Ids that are not semantic versions (snapshots such as 23w31a) follow in
// lexical order.
func ListVersions(cat *ir.Catalog) []VersionSummary {
	type keyed struct {
		summary VersionSummary
		version *semver.Version
	}

	items := make([]keyed, 0, len(cat.Versions))
	for id, entry := range cat.Versions {
		s := VersionSummary{ID: id, Mods: len(cat.ModsFor(id))}
		if entry != nil {
			if entry.Java != nil {
				s.Java = entry.Java.Name
			}
			s.Server = entry.Server != nil
			s.ModLoader = entry.Forge != nil
		}
		v, err := semver.NewVersion(id)
		if err != nil {
			v = nil
		}
		items = append(items, keyed{summary: s, version: v})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.version != nil && b.version != nil:
			if !a.version.Equal(b.version) {
				return a.version.GreaterThan(b.version)
			}
			return a.summary.ID < b.summary.ID
		case a.version != nil:
			return true
		case b.version != nil:
			return false
		default:
			return a.summary.ID < b.summary.ID
		}
	})

	out := make([]VersionSummary, len(items))
	for i, it := range items {
		out[i] = it.summary
	}
	return out
}
