// Package config loads the bridge configuration: the tagger command, the
// kinds it reports, output settings and the ambient log settings. Files are
// HCL (.hcl) or YAML (.yaml, .yml); command-line flags are applied on top by
// the caller.
//
// HCL strings are templates, so a field specifier such as %{Extern.summary}
// must be written %%{Extern.summary} in a .hcl file. YAML takes it as is.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// DefaultPatternLengthLimit matches ctags' --pattern-length-limit default.
const DefaultPatternLengthLimit = 96

var (
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	ErrInvalid           = errors.New("invalid config")
)

// KindBlock is one structured kind definition from a config file.
// Prefix and Summary are nil when not given.
type KindBlock struct {
	Name    string  `hcl:"name,label" yaml:"name"`
	Letter  string  `hcl:"letter,optional" yaml:"letter"`
	Role    string  `hcl:"role,optional" yaml:"role"`
	Prefix  *string `hcl:"prefix,optional" yaml:"prefix"`
	Summary *string `hcl:"summary,optional" yaml:"summary"`
}

// Config is everything needed to build the bridge.
type Config struct {
	Parser             string      // tagger command line, split on whitespace
	Kinds              string      // kinds option string, registered after KindBlocks
	KindBlocks         []KindBlock // kinds from the config file
	Xformat            string      // xref template override
	Xref               bool
	Backward           bool
	PatternLengthLimit int
	Fields             []string // extra tags-file fields, e.g. "Extern.summary"
	DisabledRoles      []string // "kind.role"
	DB                 string   // tag store path; empty disables the store
	Extensions         []string // files considered by run-on-directory and watch
	LogLevel           string
	LogFormat          string
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() Config {
	return Config{
		PatternLengthLimit: DefaultPatternLengthLimit,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// fileConfig is the on-disk shape shared by HCL and YAML. Pointer and nil
// slice fields distinguish "absent" from "zero".
type fileConfig struct {
	Parser             *string     `hcl:"parser,optional" yaml:"parser"`
	Kinds              *string     `hcl:"kinds,optional" yaml:"kinds"`
	Xformat            *string     `hcl:"xformat,optional" yaml:"xformat"`
	Xref               *bool       `hcl:"xref,optional" yaml:"xref"`
	Backward           *bool       `hcl:"backward,optional" yaml:"backward"`
	PatternLengthLimit *int        `hcl:"pattern_length_limit,optional" yaml:"pattern_length_limit"`
	Fields             []string    `hcl:"fields,optional" yaml:"fields"`
	DisabledRoles      []string    `hcl:"disabled_roles,optional" yaml:"disabled_roles"`
	DB                 *string     `hcl:"db,optional" yaml:"db"`
	Extensions         []string    `hcl:"extensions,optional" yaml:"extensions"`
	LogLevel           *string     `hcl:"log_level,optional" yaml:"log_level"`
	LogFormat          *string     `hcl:"log_format,optional" yaml:"log_format"`
	KindBlocks         []KindBlock `hcl:"kind,block" yaml:"kind"`
}

// Load reads path on top of Default. Relative db paths in the file are
// resolved against the file's directory.
func Load(path string) (Config, error) {
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		parser := hclparse.NewParser()
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return Config{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		diags = gohcl.DecodeBody(f.Body, nil, &fc)
		if diags.HasErrors() {
			return Config{}, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	cfg := Default()
	fc.apply(&cfg)
	if cfg.DB != "" && !filepath.IsAbs(cfg.DB) {
		cfg.DB = filepath.Join(filepath.Dir(path), cfg.DB)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.Parser, fc.Parser)
	setString(&cfg.Kinds, fc.Kinds)
	setString(&cfg.Xformat, fc.Xformat)
	setString(&cfg.DB, fc.DB)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.Xref != nil {
		cfg.Xref = *fc.Xref
	}
	if fc.Backward != nil {
		cfg.Backward = *fc.Backward
	}
	if fc.PatternLengthLimit != nil {
		cfg.PatternLengthLimit = *fc.PatternLengthLimit
	}
	if fc.Fields != nil {
		cfg.Fields = fc.Fields
	}
	if fc.DisabledRoles != nil {
		cfg.DisabledRoles = fc.DisabledRoles
	}
	if fc.Extensions != nil {
		cfg.Extensions = fc.Extensions
	}
	cfg.KindBlocks = append(cfg.KindBlocks, fc.KindBlocks...)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Level parses LogLevel as a slog level name, optionally with an offset
// ("debug", "WARN", "info+2"). An empty LogLevel is info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q", c.LogLevel)
	}
	return level, nil
}

// Validate checks the settings that can be checked without building the bridge.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}
	if c.PatternLengthLimit < 0 {
		return fmt.Errorf("%w: pattern length limit %d", ErrInvalid, c.PatternLengthLimit)
	}
	seen := make(map[string]bool, len(c.KindBlocks))
	for _, k := range c.KindBlocks {
		if k.Name == "" {
			return fmt.Errorf("%w: kind block without a name", ErrInvalid)
		}
		if seen[k.Name] {
			return fmt.Errorf("%w: kind %q defined twice", ErrInvalid, k.Name)
		}
		seen[k.Name] = true
	}
	return nil
}
