package ir

// VersionEntry holds the canonical artifacts for one game version.
type VersionEntry struct {
	Java   *JavaRuntime `json:"java" yaml:"java" pkl:"java"`
	Server *RemoteFile  `json:"server" yaml:"server" pkl:"server"`
	Forge  *RemoteFile  `json:"forge" yaml:"forge" pkl:"forge"`
}

// ModSet maps a mod name to its artifact for a single version.
type ModSet map[string]*RemoteFile

// Catalog is the version-indexed source of truth for artifacts.
type Catalog struct {
	Versions map[string]*VersionEntry
	Mods     map[string]ModSet
}

// ModsFor returns the mods published for version, or nil.
func (c *Catalog) ModsFor(version string) ModSet {
	if c == nil || c.Mods == nil {
		return nil
	}
	return c.Mods[version]
}
