// Package confload discovers and loads quartofmt configuration files.
//
// Discovery walks up from the formatted file's directory looking for
// .quartofmt.yaml or quartofmt.yaml, then falls back to
// $XDG_CONFIG_HOME/quartofmt/config.yaml. The nearest file wins; nothing
// found means defaults.
package confload

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pkt.systems/quartofmt"
)

var candidateNames = []string{".quartofmt.yaml", "quartofmt.yaml"}

// File is the on-disk configuration shape.
type File struct {
	LineWidth  int    `yaml:"line_width"`
	Wrap       string `yaml:"wrap"`
	LineEnding string `yaml:"line_ending"`
	MathIndent int    `yaml:"math_indent"`
}

// Config converts the file form into a quartofmt.Config. Fields absent
// from the file stay zero, so callers can layer their own fallbacks before
// formatting applies the library defaults.
func (f File) Config() (quartofmt.Config, error) {
	cfg := quartofmt.Config{LineWidth: f.LineWidth, MathIndent: f.MathIndent}
	wrap, err := quartofmt.ParseWrapMode(f.Wrap)
	if err != nil {
		return cfg, err
	}
	cfg.Wrap = wrap
	ending, err := quartofmt.ParseLineEnding(f.LineEnding)
	if err != nil {
		return cfg, err
	}
	cfg.LineEnding = ending
	return cfg, nil
}

// Load reads and resolves one configuration file.
func Load(path string) (quartofmt.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return quartofmt.Config{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return quartofmt.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg, err := f.Config()
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds the configuration governing the document at path and
// resolves it. A directory path searches from that directory; an empty
// path searches from the working directory. Without any config file the
// defaults are returned with no error.
func Discover(path string) (quartofmt.Config, error) {
	dir, err := startDir(path)
	if err != nil {
		return quartofmt.Config{}, err
	}
	if found, ok := searchUp(dir); ok {
		return Load(found)
	}
	if found, ok := xdgConfig(); ok {
		return Load(found)
	}
	return quartofmt.Config{}, nil
}

func startDir(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

func searchUp(dir string) (string, bool) {
	for {
		for _, name := range candidateNames {
			p := filepath.Join(dir, name)
			if fileExists(p) {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func xdgConfig() (string, bool) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		base = filepath.Join(home, ".config")
	}
	p := filepath.Join(base, "quartofmt", "config.yaml")
	if fileExists(p) {
		return p, true
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
