package ir

// Config is the configuration store document.
type Config struct {
	InstallPath    string `json:"installPath" yaml:"installPath" pkl:"installPath"`
	JavaPath       string `json:"javaPath" yaml:"javaPath" pkl:"javaPath"`
	ScreenName     string `json:"screenName" yaml:"screenName" pkl:"screenName"`
	ActiveInstance string `json:"activeInstance" yaml:"activeInstance" pkl:"activeInstance"`
	// ActiveInstanceID is the key used by older config files.
	ActiveInstanceID string `json:"activeInstanceId,omitempty" yaml:"activeInstanceId,omitempty" pkl:"activeInstanceId"`
	InsecureTLS      bool   `json:"insecureTLS,omitempty" yaml:"insecureTLS,omitempty" pkl:"insecureTLS"`
	TemplatesPath    string `json:"templatesPath,omitempty" yaml:"templatesPath,omitempty" pkl:"templatesPath"`

	Instances map[string]*DeclaredInstance `json:"instances" yaml:"instances" pkl:"instances"`
}

// Active returns the instance selected when none is named on the command line.
func (c *Config) Active() string {
	if c.ActiveInstance != "" {
		return c.ActiveInstance
	}
	return c.ActiveInstanceID
}

// DeclaredInstance is an instance as authored in the config store.
// Name is filled from the instances map key.
type DeclaredInstance struct {
	Name      string   `json:"-" yaml:"-" pkl:"-"`
	Version   string   `json:"version" yaml:"version" pkl:"version"`
	ModLoader bool     `json:"forge" yaml:"forge" pkl:"forge"`
	World     *string  `json:"world" yaml:"world" pkl:"world"`
	Command   string   `json:"command" yaml:"command" pkl:"command"`
	Mods      []string `json:"mods" yaml:"mods" pkl:"mods"`
}
