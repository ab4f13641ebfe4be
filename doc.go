// Package conftree provides a hierarchical, mutable configuration tree
// with typed leaf values, nested mappings and sequences, lazy string
// interpolation between nodes, and structural merging of layered
// configuration sources: defaults, files, environment variables, and
// command-line arguments.
//
// Features:
//   - Mapping and sequence containers with full path addressing ("a.b[1].c")
//   - Typed leaves (int, float, bool, string, enum) with coercion on assignment
//   - ${path} interpolation references, re-resolved on every read
//   - Deterministic deep merge of override trees onto a base tree
//   - Multiple configuration sources with customizable precedence
//   - TOML, JSON, and YAML file loading with format auto-detection
//   - Struct decoding via mapstructure with weak typing
//   - Builder pattern for easy initialization
//
// Quick Start:
//
//	defaults := conftree.MustCreate(map[string]any{
//	    "server": map[string]any{
//	        "host": "localhost",
//	        "port": 8080,
//	        "url":  "${server.host}",
//	    },
//	})
//
//	cfg, err := conftree.NewBuilder().
//	    WithDefaults(defaults).
//	    WithFile("config.toml").
//	    WithEnvPrefix("MYAPP_").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, err := cfg.String("server.host")
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--server.port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090)
//  3. Configuration file (config.toml)
//  4. Default values
//
// The tree is a single-writer, single-reader in-process structure.
// Callers requiring concurrent mutation must serialize externally.
package conftree
