package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// SDKEnv overrides the standard library location when neither the command
// line nor loa.toml does.
const SDKEnv = "LOA_SDK"

const (
	DefaultSources        = "**/*.loa"
	DefaultMain           = "Main"
	DefaultMaxDiagnostics = 100
)

// Config is the resolved project configuration.
type Config struct {
	// Root is the directory sources are collected from: the directory of
	// loa.toml, or the start directory when there is none.
	Root string
	// Manifest is the path of loa.toml; empty when defaults are used.
	Manifest string

	Name           string
	Sources        string
	Main           string
	MaxDiagnostics int
	// SDK is a directory of .loa files replacing the embedded standard
	// library. Empty means embedded.
	SDK string
}

var (
	// ErrUnknownKey is returned for keys loa.toml does not define.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidValue is returned for out-of-range settings.
	ErrInvalidValue = errors.New("invalid value")
)

type manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Build struct {
		Sources        string `toml:"sources"`
		Main           string `toml:"main"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
	} `toml:"build"`
	SDK struct {
		Path string `toml:"path"`
	} `toml:"sdk"`
}

// Default is the configuration of a directory without loa.toml.
func Default(root string) Config {
	return Config{
		Root:           root,
		Name:           filepath.Base(root),
		Sources:        DefaultSources,
		Main:           DefaultMain,
		MaxDiagnostics: DefaultMaxDiagnostics,
	}
}

// Load finds loa.toml above startDir and decodes it. Without a manifest
// the defaults for the start directory are returned.
func Load(startDir string) (Config, error) {
	loc, err := Locate(startDir)
	if err != nil {
		return Config{}, err
	}
	if !loc.HasManifest() {
		cfg := Default(loc.Root)
		cfg.ResolveSDK("")
		return cfg, nil
	}
	return LoadFile(loc.Manifest)
}

// LoadFile decodes one loa.toml.
func LoadFile(path string) (Config, error) {
	var m manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return Config{}, fmt.Errorf("%s: %w %q", path, ErrUnknownKey, undecoded[0].String())
	}

	cfg := Default(filepath.Dir(path))
	cfg.Manifest = path
	if meta.IsDefined("package", "name") {
		cfg.Name = strings.TrimSpace(m.Package.Name)
	}
	if meta.IsDefined("build", "sources") {
		cfg.Sources = strings.TrimSpace(m.Build.Sources)
		if cfg.Sources == "" {
			return Config{}, fmt.Errorf("%s: %w: [build].sources is empty", path, ErrInvalidValue)
		}
	}
	if meta.IsDefined("build", "main") {
		cfg.Main = strings.TrimSpace(m.Build.Main)
	}
	if meta.IsDefined("build", "max_diagnostics") {
		if m.Build.MaxDiagnostics < 0 {
			return Config{}, fmt.Errorf("%s: %w: [build].max_diagnostics must not be negative", path, ErrInvalidValue)
		}
		cfg.MaxDiagnostics = m.Build.MaxDiagnostics
	}
	if meta.IsDefined("sdk", "path") {
		cfg.SDK = strings.TrimSpace(m.SDK.Path)
	}
	cfg.ResolveSDK("")
	return cfg, nil
}

// ResolveSDK applies the SDK precedence: flag, then loa.toml, then the
// LOA_SDK environment variable. A relative flag is taken from the working
// directory, the other relative paths from Root.
func (c *Config) ResolveSDK(flag string) {
	switch {
	case flag != "":
		if abs, err := filepath.Abs(flag); err == nil {
			flag = abs
		}
		c.SDK = flag
	case c.SDK != "":
	default:
		c.SDK = os.Getenv(SDKEnv)
	}
	if c.SDK != "" && !filepath.IsAbs(c.SDK) {
		c.SDK = filepath.Join(c.Root, c.SDK)
	}
}
