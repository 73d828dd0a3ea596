package install

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

//go:embed templates/*
var embedded embed.FS

const (
	eulaFile   = "eula.txt"
	screenFile = "screen.sh"
	startFile  = "start.sh"

	scriptMode = 0744
)

// ScreenScript fills screen.sh.tmpl.
type ScreenScript struct {
	InstancePath string
	ScreenName   string
}

// StartScript fills start.sh.tmpl. Command is inserted verbatim.
type StartScript struct {
	InstancePath string
	Command      string
	JavaHome     string
}

var funcs = template.FuncMap{
	"shellQuote": shellQuote,
	"regexQuote": regexp.QuoteMeta,
}

// shellQuote wraps s in single quotes for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// templateSet reads templates from an override directory first and falls
// back to the embedded copies.
type templateSet struct {
	overrideDir string
}

func (ts templateSet) read(name string) ([]byte, error) {
	if ts.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(ts.overrideDir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return embedded.ReadFile("templates/" + name)
}

func (ts templateSet) parse(name string) (*template.Template, error) {
	data, err := ts.read(name + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// render executes the named template with data into dest.
func (ts templateSet) render(name, dest string, data any) error {
	tmpl, err := ts.parse(name)
	if err != nil {
		return err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return writeFileAtomic(dest, []byte(b.String()), scriptMode)
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash never leaves a truncated script behind.
func writeFileAtomic(dest string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
