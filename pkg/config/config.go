// Package config loads the tool configuration from defaults, an optional
// forge-graph.toml, FORGE_GRAPH_ environment variables and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "forge-graph.toml"

// EnvPrefix prefixes environment overrides, e.g. FORGE_GRAPH_PORT=9090
const EnvPrefix = "FORGE_GRAPH_"

// Config holds all configuration for the application
type Config struct {
	Project    string   `koanf:"project"`
	Serve      bool     `koanf:"serve"`
	Port       int      `koanf:"port"`
	Watch      bool     `koanf:"watch"`
	Operation  string   `koanf:"operation"`
	Target     string   `koanf:"target"`
	Format     string   `koanf:"format"`
	Params     []string `koanf:"params"` // key=value pairs passed to the operation
	Verbosity  string   `koanf:"verbosity"`
	VerboseCnt int      `koanf:"verbose"`
	Markers    Markers  `koanf:"markers"`
	Analysis   Analysis `koanf:"analysis"`
}

// Markers names the base classes that classify component and asset types
type Markers struct {
	ComponentBase string `koanf:"component_base"`
	AssetBase     string `koanf:"asset_base"`
}

// Analysis holds the analyzer defaults
type Analysis struct {
	Depth           int `koanf:"depth"`
	MetricsTopN     int `koanf:"metrics_top_n"`
	SuggestionLimit int `koanf:"suggestion_limit"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"project":   ".",
		"serve":     false,
		"port":      8080,
		"watch":     false,
		"operation": "",
		"target":    "",
		"format":    "json",
		"params":    []string{},
		"verbosity": "",
		"verbose":   0,
		"markers": map[string]interface{}{
			"component_base": "UnityEngine.MonoBehaviour",
			"asset_base":     "UnityEngine.ScriptableObject",
		},
		"analysis": map[string]interface{}{
			"depth":            2,
			"metrics_top_n":    10,
			"suggestion_limit": 5,
		},
	}
}

// flagKeys maps flag names that differ from their config key
var flagKeys = map[string]string{
	"param":            "params",
	"depth":            "analysis.depth",
	"top-n":            "analysis.metrics_top_n",
	"suggestion-limit": "analysis.suggestion_limit",
	"component-base":   "markers.component_base",
	"asset-base":       "markers.asset_base",
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		provider := posflag.ProviderWithFlag(f, ".", k, func(flag *pflag.Flag) (string, interface{}) {
			key := flag.Name
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(f, flag)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps FORGE_GRAPH_ANALYSIS_METRICS_TOP_N to analysis.metrics_top_n.
// Only the section separator becomes a dot.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"markers_", "analysis_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
