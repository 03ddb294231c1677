package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formula is one Homebrew formula to manage. In YAML it is either a plain
// string or a mapping with a `when` condition:
//
//	formulas:
//	  - gstreamer
//	  - name: gst-libav
//	    when: os == "darwin"
type Formula struct {
	Name string `yaml:"name"`
	When string `yaml:"when"`
}

func (f *Formula) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Name = value.Value
		f.When = ""
		return nil
	}

	type plain Formula
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*f = Formula(p)
	return nil
}

// Homebrew configures where the installer scripts come from. Values may be
// templates (sprig functions, system context fields).
type Homebrew struct {
	InstallURL   string `yaml:"install_url"`
	UninstallURL string `yaml:"uninstall_url"`
	// Prefixes are searched for the brew binary when it is not on PATH,
	// e.g. right after a fresh install.
	Prefixes []string `yaml:"prefixes"`
}

// Host is a machine reachable over SSH. Password may be a template such as
// {{ env "BREWSTRAP_SSH_PASSWORD" }} so that it can live in a .env file.
type Host struct {
	Name       string `yaml:"name"`
	Address    string `yaml:"address"`
	User       string `yaml:"user"`
	Port       int    `yaml:"port"`
	KeyPath    string `yaml:"key_path"`
	Password   string `yaml:"password"`
	KnownHosts string `yaml:"known_hosts"`
}

type Config struct {
	Homebrew Homebrew  `yaml:"homebrew"`
	Formulas []Formula `yaml:"formulas"`
	// Options are appended to `brew install`.
	Options []string `yaml:"options"`
	Hosts   []Host   `yaml:"hosts"`
}

// Default returns the built-in configuration: Homebrew from the official
// installer and the GStreamer formula bundle.
func Default() *Config {
	return &Config{
		Homebrew: Homebrew{
			InstallURL:   "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh",
			UninstallURL: "https://raw.githubusercontent.com/Homebrew/install/HEAD/uninstall.sh",
			Prefixes: []string{
				"/opt/homebrew/bin",
				"/usr/local/bin",
				"/home/linuxbrew/.linuxbrew/bin",
			},
		},
		Formulas: []Formula{
			{Name: "gstreamer"},
			{Name: "gst-plugins-base"},
			{Name: "gst-plugins-good"},
			{Name: "gst-plugins-bad"},
			{Name: "gst-plugins-ugly"},
			{Name: "gst-libav"},
			{Name: "gst-rtsp-server"},
		},
	}
}

// LoadConfig reads the YAML file at path on top of Default. A missing file
// is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields the installer relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Homebrew.InstallURL) == "" {
		return errors.New("homebrew.install_url is empty")
	}
	if strings.TrimSpace(c.Homebrew.UninstallURL) == "" {
		return errors.New("homebrew.uninstall_url is empty")
	}
	if len(c.Formulas) == 0 {
		return errors.New("no formulas configured")
	}
	for i, f := range c.Formulas {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("formula #%d has no name", i+1)
		}
	}

	seen := make(map[string]bool)
	for _, h := range c.Hosts {
		if h.Name == "" || h.Address == "" {
			return fmt.Errorf("host %q needs both name and address", h.Name)
		}
		if seen[h.Name] {
			return fmt.Errorf("duplicate host %q", h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}

// Host returns the host called name.
func (c *Config) Host(name string) (Host, error) {
	for _, h := range c.Hosts {
		if h.Name == name {
			return h, nil
		}
	}
	return Host{}, fmt.Errorf("host %q not found in config", name)
}
