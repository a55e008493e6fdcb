package session

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/wernerfragner/jaqlib-sub001/jaqlib/faults"
	"github.com/wernerfragner/jaqlib-sub001/jaqlib/mapping"
)

// Config is the YAML form of the session settings:
//
//	strict: true
//	naming: snake_case
//	log_level: debug
type Config struct {
	Strict   bool   `yaml:"strict"`
	Naming   string `yaml:"naming"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig decodes a Config. Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "unable to decode session config")
	}
	return cfg, nil
}

func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to open session config")
	}
	defer f.Close()
	return LoadConfig(f)
}

// Level parses LogLevel; empty means info.
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, faults.NewConfigurationError("session.Config", "log_level", "unknown level %q", c.LogLevel)
	}
	return level, nil
}

// Options turns the config into session options. out receives the log
// output; nil keeps slog.Default().
func (c Config) Options(out io.Writer) ([]Option, error) {
	opts := []Option{WithStrict(c.Strict)}
	if c.Naming != "" {
		naming, err := mapping.NamingByName(c.Naming)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithNaming(naming))
	}
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	if out != nil {
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))))
	}
	return opts, nil
}
