package ir

import "fmt"

// ConfigErrorKind classifies configuration failures.
type ConfigErrorKind string

const (
	UnknownInstance   ConfigErrorKind = "unknown instance"
	UnknownVersion    ConfigErrorKind = "unknown version"
	UnknownModVersion ConfigErrorKind = "unknown mod for version"
	MissingArtifact   ConfigErrorKind = "missing artifact"
	InvalidDocument   ConfigErrorKind = "invalid document"
)

// ConfigError is a fatal problem with the config store or catalog. It names
// the offending instance, version or mod.
type ConfigError struct {
	Kind    ConfigErrorKind
	Subject string
	Detail  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s %q", e.Kind, e.Subject)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
