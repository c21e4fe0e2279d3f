// Package config reads connection profiles from a YAML file.
//
//	default: work
//	profiles:
//	  work:
//	    scheme: ftps
//	    host: files.example.com
//	    user: bob
//	    timeout: 45s
//	    text_extensions: [txt, csv, md]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPassword overrides the password of whatever profile is used
	EnvPassword = "FTP_SIDEKICK_PASSWORD"
	// EnvProfile names the profile used when none is given on the command line
	EnvProfile = "FTP_SIDEKICK_PROFILE"
)

// Profile holds connection defaults for one server
type Profile struct {
	Scheme                string        `yaml:"scheme"`
	Host                  string        `yaml:"host"`
	Port                  int           `yaml:"port"`
	User                  string        `yaml:"user"`
	Password              *string       `yaml:"password"`
	Timeout               time.Duration `yaml:"timeout"`
	Passive               *bool         `yaml:"passive"`
	ExplicitTLS           bool          `yaml:"explicit_tls"`
	DisableEPSV           bool          `yaml:"disable_epsv"`
	InsecureIgnoreHostKey bool          `yaml:"insecure_ignore_host_key"`
	KnownHosts            string        `yaml:"known_hosts"`
	TextExtensions        []string      `yaml:"text_extensions"`
	Debug                 bool          `yaml:"debug"`
}

// File is the whole profiles file
type File struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultPath is profiles.yml in the ftp-sidekick directory under the user's config
// directory ($XDG_CONFIG_HOME or ~/.config on Linux)
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate config directory: %w", err)
	}
	return filepath.Join(dir, "ftp-sidekick", "profiles.yml"), nil
}

// Load reads the profiles file at path. An empty path means DefaultPath, and a
// missing default file is not an error.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return &File{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("cannot read profiles from %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid profiles file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a profiles file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for name, p := range f.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if f.Default != "" {
		if _, ok := f.Profiles[f.Default]; !ok {
			return nil, fmt.Errorf("default profile %q is not defined", f.Default)
		}
	}
	return &f, nil
}

// Names returns the profile names, sorted
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile picks a profile by name. An empty name falls back to $FTP_SIDEKICK_PROFILE and
// then to the file's default; with neither, an empty profile is returned.
// The password is overridden by $FTP_SIDEKICK_PASSWORD when that is set.
func (f *File) Profile(name string, getenv func(string) string) (Profile, error) {
	if name == "" {
		name = getenv(EnvProfile)
	}
	if name == "" {
		name = f.Default
	}
	var p Profile
	if name != "" {
		var ok bool
		if p, ok = f.Profiles[name]; !ok {
			return Profile{}, fmt.Errorf("no profile named %q", name)
		}
	}
	if password := getenv(EnvPassword); password != "" {
		p.Password = &password
	}
	return p, nil
}

// Validate checks the values that can't be checked by decoding alone
func (p Profile) Validate() error {
	switch p.Scheme {
	case "", "ftp", "ftps", "sftp":
	default:
		return fmt.Errorf("unsupported scheme %q", p.Scheme)
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range", p.Port)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", p.Timeout)
	}
	return nil
}
