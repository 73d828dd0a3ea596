package ir

import (
	"fmt"
	"path/filepath"
)

// ResolvedInstance is a declared instance joined against the catalog.
// Exactly one of Server and ModLoader is set; Mods is only populated
// alongside ModLoader.
type ResolvedInstance struct {
	Name      string
	Version   string
	Server    *RemoteFile
	ModLoader *RemoteFile
	World     *string
	Command   string
	Java      JavaRuntime
	Mods      []RemoteFile
}

// Validate checks the server/mod-loader invariants.
func (r *ResolvedInstance) Validate() error {
	if (r.Server == nil) == (r.ModLoader == nil) {
		return fmt.Errorf("instance %s: exactly one of server or mod loader must be resolved", r.Name)
	}
	if len(r.Mods) > 0 && r.ModLoader == nil {
		return fmt.Errorf("instance %s: mods require a mod loader", r.Name)
	}
	return nil
}

// Plan is a resolved instance plus the host paths a run writes to.
type Plan struct {
	Instance      *ResolvedInstance
	InstanceDir   string
	JavaRoot      string
	ScreenName    string
	TemplatesPath string
}

// JavaHome is the runtime's bin directory.
func (p *Plan) JavaHome() string {
	return filepath.Join(p.JavaRoot, p.Instance.Java.Name, "bin")
}

// ModsDir is where mod jars are placed.
func (p *Plan) ModsDir() string {
	return filepath.Join(p.InstanceDir, "mods")
}
