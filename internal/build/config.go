package build

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/Masterminds/semver/v3"
	"github.com/naoina/toml"
)

// LanguageVersion is the version of the Kestrel language this compiler
// implements. Projects gate on it with the Language constraint.
const LanguageVersion = "0.3.0"

// ConfigFileName is looked up in the project directory.
const ConfigFileName = "kestrel.toml"

// ErrLanguageVersion is returned when a project requires a language version
// this compiler does not implement.
var ErrLanguageVersion = errors.New("unsupported language version")

// Config holds the project settings from kestrel.toml.
type Config struct {
	Language  string   // semver constraint on LanguageVersion
	MaxErrors int      // errors recorded per file
	Warnings  bool     // false drops warnings
	Color     string   // auto | always | never
	Jobs      int      // files compiled concurrently
	CacheSize int      // compile results kept in memory
	Sources   []string // directories scanned for .kst files
}

// DefaultConfig contains the settings used when no file is present.
var DefaultConfig = Config{
	MaxErrors: 100,
	Warnings:  true,
	Color:     "auto",
	Jobs:      4,
	CacheSize: 256,
	Sources:   []string{"."},
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, ConfigFileName)
	},
}

// LoadConfig reads file over the defaults. A missing file is not an error
// when optional is set.
func LoadConfig(file string, optional bool) (Config, error) {
	cfg := DefaultConfig
	cfg.Sources = append([]string(nil), DefaultConfig.Sources...)

	f, err := os.Open(file)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and the syntax of the language constraint. Whether
// the constraint admits LanguageVersion is decided per compilation.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("Jobs must be at least 1, got %d", c.Jobs)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("CacheSize must be at least 1, got %d", c.CacheSize)
	}
	if c.MaxErrors < 1 {
		return fmt.Errorf("MaxErrors must be at least 1, got %d", c.MaxErrors)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid Color %q", c.Color)
	}
	if c.Language != "" {
		if _, err := semver.NewConstraint(c.Language); err != nil {
			return fmt.Errorf("invalid Language constraint %q: %w", c.Language, err)
		}
	}
	return nil
}

// CheckLanguage reports whether LanguageVersion satisfies constraint. An
// empty constraint accepts every version.
func CheckLanguage(constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid Language constraint %q: %w", constraint, err)
	}
	v := semver.MustParse(LanguageVersion)
	if ok, reasons := c.Validate(v); !ok {
		msg := constraint
		if len(reasons) > 0 {
			msg = reasons[0].Error()
		}
		return fmt.Errorf("language %s: %s: %w", LanguageVersion, msg, ErrLanguageVersion)
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return tomlSettings.Marshal(&c)
}
