package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"pebl/internal/limits"
)

// ManifestName is the project file looked up in a run directory.
const ManifestName = "pebl.yaml"

const (
	ModeRecursive = "recursive"
	ModeIterative = "iterative"
)

type Limits struct {
	MaxStackDepth int   `yaml:"max_stack_depth"`
	MaxSteps      int64 `yaml:"max_steps"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Manifest is the contents of pebl.yaml. Path is where it was read from.
type Manifest struct {
	Path string `yaml:"-"`

	Name          string `yaml:"name"`
	Entry         string `yaml:"entry"`
	Mode          string `yaml:"mode"`
	Limits        Limits `yaml:"limits"`
	LogLevel      string `yaml:"log_level"`
	Window        Window `yaml:"window"`
	StepsPerFrame int    `yaml:"steps_per_frame"`
}

func Defaults() *Manifest {
	return &Manifest{
		Entry: "main.pbl",
		Mode:  ModeIterative,
		Limits: Limits{
			MaxStackDepth: limits.DefaultMaxStackDepth,
		},
		LogLevel: "warn",
		Window: Window{
			Width:  800,
			Height: 600,
			Title:  "PEBL",
		},
		StepsPerFrame: 10000,
	}
}

// LoadManifest reads path over Defaults. Unknown keys are an error.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

func Decode(r io.Reader) (*Manifest, error) {
	m := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) Validate() error {
	switch m.Mode {
	case ModeRecursive, ModeIterative:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeRecursive, ModeIterative, m.Mode)
	}
	if strings.TrimSpace(m.Entry) == "" {
		return errors.New("missing entry")
	}
	if m.Limits.MaxStackDepth < 0 || m.Limits.MaxSteps < 0 {
		return errors.New("limits must not be negative")
	}
	if m.StepsPerFrame <= 0 {
		return errors.New("steps_per_frame must be positive")
	}
	if _, err := zerolog.ParseLevel(m.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// EntryPath is the entry script relative to the manifest's directory.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Entry) || m.Path == "" {
		return m.Entry
	}
	return filepath.Join(filepath.Dir(m.Path), m.Entry)
}

// Logger is a console logger at the manifest's level.
func (m *Manifest) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(m.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// Encode renders m as pebl.yaml.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
