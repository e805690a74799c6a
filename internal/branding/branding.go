// Package branding holds the identity vixpip is built with: the command
// name, the dot-directory under $HOME, the env var prefix and the package
// index queried when no index_url is configured.
//
// The values come from branding.yaml, embedded at build time. A key that
// is missing or blank in the file keeps its built-in value.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

// Identity is the parsed contents of branding.yaml.
type Identity struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	HomeDir       string `yaml:"home_dir"`
	ExtensionsDir string `yaml:"extensions_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	IndexURL      string `yaml:"index_url"`
}

var builtin = Identity{
	CLIName:       "vixpip",
	DisplayName:   "vixpip",
	Description:   "Package manager for vixscript extensions",
	HomeDir:       ".vixscript",
	ExtensionsDir: "extensions",
	EnvPrefix:     "VIXPIP",
	IndexURL:      "https://vixscript.github.io/extensions/extensions.json",
}

var current = sync.OnceValue(func() Identity { return parse(rawBranding) })

// parse overlays the non-blank values in data onto the built-in identity.
// Unreadable YAML yields the built-in identity unchanged.
func parse(data []byte) Identity {
	var file Identity
	if err := yaml.Unmarshal(data, &file); err != nil {
		return builtin
	}

	id := builtin
	overlay := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	overlay(&id.CLIName, file.CLIName)
	overlay(&id.DisplayName, file.DisplayName)
	overlay(&id.Description, file.Description)
	overlay(&id.HomeDir, file.HomeDir)
	overlay(&id.ExtensionsDir, file.ExtensionsDir)
	overlay(&id.EnvPrefix, file.EnvPrefix)
	overlay(&id.IndexURL, file.IndexURL)
	return id
}

// Current returns the identity compiled into the binary.
func Current() Identity { return current() }

// CLIName is the root command name.
func CLIName() string { return current().CLIName }

func DisplayName() string { return current().DisplayName }

func Description() string { return current().Description }

// HomeDir is the dot-directory under $HOME, e.g. ".vixscript".
func HomeDir() string { return current().HomeDir }

// ExtensionsDir is the extension root's name inside HomeDir.
func ExtensionsDir() string { return current().ExtensionsDir }

func EnvPrefix() string { return current().EnvPrefix }

// IndexURL is the package index used when index_url is not configured.
func IndexURL() string { return current().IndexURL }

// EnvVar builds a prefixed variable name: EnvVar("extensions") is
// "VIXPIP_EXTENSIONS".
func EnvVar(suffix string) string {
	return current().EnvPrefix + "_" + strings.ToUpper(suffix)
}
