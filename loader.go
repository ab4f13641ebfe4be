package conftree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source, used to define load precedence.
type Source string

const (
	// SourceDefault represents the caller-supplied defaults tree.
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a configuration file.
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables.
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments.
	SourceCLI Source = "cli"
)

// EnvTransformFunc converts a configuration path to an environment
// variable name.
type EnvTransformFunc func(path string) string

// LoadOptions configures how configuration is loaded from multiple sources.
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority).
	// Default: [SourceCLI, SourceEnv, SourceFile, SourceDefault]
	Sources []Source

	// EnvPrefix is prepended to environment variable names.
	// Example: "MYAPP_" transforms "server.port" to "MYAPP_SERVER_PORT".
	EnvPrefix string

	// EnvTransform customizes how paths map to environment variables.
	// If nil, uses the default transformation (dots to underscores,
	// uppercase).
	EnvTransform EnvTransformFunc

	// EnvWhitelist limits which paths are checked for env vars (nil = all).
	EnvWhitelist map[string]bool
}

// DefaultLoadOptions returns the standard load options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
	}
}

// Load layers the configured sources onto the defaults tree and returns
// the merged result as a new tree; defaults is not mutated. Sources are
// folded in reverse precedence order so higher-priority sources override
// lower ones. A missing config file is reported through the returned
// error as ErrConfigNotFound but does not abort the remaining sources.
func Load(defaults Node, filePath string, args []string, opts LoadOptions) (Node, error) {
	if len(opts.Sources) == 0 {
		opts.Sources = DefaultLoadOptions().Sources
	}
	result, err := Merge(defaults)
	if err != nil {
		return nil, err
	}

	var loadErrors []error
	for i := len(opts.Sources) - 1; i >= 0; i-- {
		var overlay Node
		switch opts.Sources[i] {
		case SourceDefault:
			// Already the base of the fold.
			continue

		case SourceFile:
			if filePath == "" {
				continue
			}
			tree, err := LoadFile(filePath)
			if err != nil {
				if errors.Is(err, ErrConfigNotFound) {
					loadErrors = append(loadErrors, err)
					continue
				}
				return nil, err
			}
			overlay = tree

		case SourceEnv:
			tree, err := LoadEnv(defaults, opts)
			if err != nil {
				loadErrors = append(loadErrors, err)
				continue
			}
			overlay = tree

		case SourceCLI:
			if len(args) == 0 {
				continue
			}
			tree, err := LoadCLI(args)
			if err != nil {
				loadErrors = append(loadErrors, err)
				continue
			}
			overlay = tree
		}

		if overlay == nil {
			continue
		}
		result, err = Merge(result, overlay)
		if err != nil {
			return nil, err
		}
	}

	return result, errors.Join(loadErrors...)
}

// LoadFile reads a configuration file into a tree. The format is chosen
// by extension (toml/tml, json, yaml/yml) and falls back to content
// detection. A nonexistent file fails with ErrConfigNotFound.
func LoadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
		if format == "" {
			return nil, fmt.Errorf("unable to determine config format for file '%s'", path)
		}
	}

	native, err := parseConfigData(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config file '%s': %w", format, path, err)
	}
	return Create(native)
}

// parseConfigData unmarshals raw config bytes of the given format into a
// nested native map.
func parseConfigData(data []byte, format string) (map[string]any, error) {
	native := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &native); err != nil {
			return nil, err
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&native); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &native); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return native, nil
}

// LoadEnv builds an override tree from environment variables matching
// the leaf paths of base. Each path transforms to a variable name via
// opts (dots to underscores, uppercased, prefixed); only found variables
// appear in the result.
func LoadEnv(base Node, opts LoadOptions) (Node, error) {
	transform := opts.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(opts.EnvPrefix)
	}

	found := make(map[string]string)
	for _, path := range leafPaths(base) {
		if opts.EnvWhitelist != nil && !opts.EnvWhitelist[path] {
			continue
		}
		if strings.Contains(path, "[") {
			// Sequence elements have no natural env var spelling.
			continue
		}
		if value, exists := os.LookupEnv(transform(path)); exists {
			found[path] = value
		}
	}

	nested := make(map[string]any)
	for path, value := range found {
		setNestedValue(nested, path, parseScalarToken(value))
	}
	return Create(nested)
}

// DiscoverEnv reports which environment variables would feed the leaf
// paths of base: a map of path to variable name for variables currently
// set.
func DiscoverEnv(base Node, prefix string) map[string]string {
	transform := defaultEnvTransform(prefix)
	discovered := make(map[string]string)
	for _, path := range leafPaths(base) {
		if strings.Contains(path, "[") {
			continue
		}
		envVar := transform(path)
		if _, exists := os.LookupEnv(envVar); exists {
			discovered[path] = envVar
		}
	}
	return discovered
}

// LoadCLI builds an override tree from command-line arguments of the
// form "--key.subkey=value", "--key value", or "--booleanflag".
func LoadCLI(args []string) (Node, error) {
	nested, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return Create(nested)
}

// parseArgs processes command-line arguments into a nested map structure.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// Skip "--" argument if used as a separator
			i++
			continue
		}

		var keyPath string
		var valueStr string

		// Check for "--key=value" format
		if strings.Contains(argContent, "=") {
			parts := strings.SplitN(argContent, "=", 2)
			keyPath = parts[0]
			valueStr = parts[1]
			i++
		} else {
			keyPath = argContent
			// A boolean flag if the next arg is another flag or absent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}

		segments := strings.Split(keyPath, ".")
		for _, segment := range segments {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}

		setNestedValue(result, keyPath, parseScalarToken(valueStr))
	}

	return result, nil
}

// parseScalarToken interprets a raw string from the env or CLI as an
// int, float, or bool when it parses cleanly, otherwise keeps it as a
// string. Numbers win over bools so "--a=1" loads as 1, not true; only
// the literal spellings "true" and "false" become bools. Quoted tokens
// stay strings with the quotes stripped.
func parseScalarToken(s string) any {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// defaultEnvTransform creates the default environment variable transformer.
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
func detectFormatFromContent(data []byte) string {
	// Try JSON first (strict format)
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// Try YAML (superset of JSON, so check after JSON)
	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	// Try TOML last
	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	return ""
}
