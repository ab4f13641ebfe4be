package conftree

import (
	"errors"
	"fmt"
	"os"
)

// ValidatorFunc validates a fully loaded configuration tree and returns
// an error if it is unacceptable.
type ValidatorFunc func(root *Mapping) error

// Builder provides a fluent interface for assembling a layered
// configuration tree.
type Builder struct {
	defaults   any
	opts       LoadOptions
	file       string
	args       []string
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new configuration builder with the standard
// source precedence and os.Args as the CLI source.
func NewBuilder() *Builder {
	return &Builder{
		opts: DefaultLoadOptions(),
		args: os.Args[1:],
	}
}

// WithDefaults sets the defaults layer: a nested native map, an existing
// tree, or a struct (converted through its `conf` tags).
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithFile sets the configuration file path.
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets the command-line arguments.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithEnvPrefix sets the environment variable prefix.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithEnvTransform sets a custom environment variable transformer.
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.opts.EnvTransform = fn
	return b
}

// WithEnvWhitelist limits which paths are checked for env vars.
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	if b.opts.EnvWhitelist == nil {
		b.opts.EnvWhitelist = make(map[string]bool)
	}
	for _, path := range paths {
		b.opts.EnvWhitelist[path] = true
	}
	return b
}

// WithSources sets the precedence order for configuration sources.
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithValidator adds a validation function that runs at the end of the
// build. Multiple validators execute in the order they were added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build assembles the tree: defaults, then file, env, and CLI overlays
// merged per the configured precedence. A missing config file is
// reported as a non-fatal ErrConfigNotFound alongside the built tree.
func (b *Builder) Build() (*Mapping, error) {
	if b.err != nil {
		return nil, b.err
	}

	defaults, err := b.defaultsTree()
	if err != nil {
		return nil, fmt.Errorf("failed to build defaults: %w", err)
	}

	merged, loadErr := Load(defaults, b.file, b.args, b.opts)
	if loadErr != nil && !errors.Is(loadErr, ErrConfigNotFound) {
		return nil, loadErr
	}

	root, ok := merged.(*Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: layered configuration must be rooted in a mapping, got %s", ErrUnsupportedValueType, merged.Kind())
	}

	for _, validator := range b.validators {
		if err := validator(root); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	// ErrConfigNotFound or nil
	return root, loadErr
}

// MustBuild is like Build but panics on error. ErrConfigNotFound is not
// fatal; the tree proceeds with the remaining sources.
func (b *Builder) MustBuild() *Mapping {
	root, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return root
}

// BuildAndDecode builds the tree and decodes the resolved result into
// the provided target struct pointer.
func (b *Builder) BuildAndDecode(target any) error {
	root, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}
	if decodeErr := Decode(root, target); decodeErr != nil {
		return fmt.Errorf("failed to decode final config into target: %w", decodeErr)
	}
	// ErrConfigNotFound or nil
	return err
}

func (b *Builder) defaultsTree() (Node, error) {
	switch d := b.defaults.(type) {
	case nil:
		return NewMapping(), nil
	case Node:
		return d.Clone(), nil
	case map[string]any:
		return Create(d)
	default:
		native, err := structToMap(d)
		if err != nil {
			return nil, err
		}
		return Create(native)
	}
}

// Quick creates a fully layered configuration tree with a single call:
// defaults (struct, map, or tree), environment variables with the given
// prefix, a config file, and os.Args, merged with standard precedence.
func Quick(defaults any, envPrefix, configFile string) (*Mapping, error) {
	return NewBuilder().
		WithDefaults(defaults).
		WithEnvPrefix(envPrefix).
		WithFile(configFile).
		Build()
}
