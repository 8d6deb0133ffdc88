package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a bridge configuration.
type File struct {
	Command            string            `yaml:"command"`
	Args               []string          `yaml:"args,omitempty"`
	Dir                string            `yaml:"dir,omitempty"`
	Env                map[string]string `yaml:"env,omitempty"`
	Transcript         string            `yaml:"transcript,omitempty"`
	TranscriptCapacity int               `yaml:"transcript_capacity,omitempty"`
	KeepChildOnDispose bool              `yaml:"keep_child_on_dispose,omitempty"`
	GracePeriod        time.Duration     `yaml:"grace_period,omitempty"`
	MaxLineSize        int               `yaml:"max_line_size,omitempty"`
	DispatchBuffer     int               `yaml:"dispatch_buffer,omitempty"`
	LogLevel           string            `yaml:"log_level,omitempty"`
}

// Load reads a YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data and validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if f.GracePeriod < 0 {
		return nil, fmt.Errorf("config: grace_period must not be negative")
	}

	if f.MaxLineSize < 0 || f.DispatchBuffer < 0 || f.TranscriptCapacity < 0 {
		return nil, fmt.Errorf("config: sizes must not be negative")
	}

	if _, err := ParseLogLevel(f.LogLevel); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &f, nil
}

// Apply copies the file's settings onto o. The transcript path is not opened here.
func (f *File) Apply(o *Options) {
	if f.Command != "" {
		o.Path = f.Command
	}

	if f.Args != nil {
		o.Args = f.Args
	}

	if f.Dir != "" {
		o.Dir = f.Dir
	}

	if len(f.Env) > 0 {
		if o.Env == nil {
			o.Env = make(map[string]string, len(f.Env))
		}

		for k, v := range f.Env {
			o.Env[k] = v
		}
	}

	if f.TranscriptCapacity > 0 {
		o.TranscriptCapacity = f.TranscriptCapacity
	}

	if f.KeepChildOnDispose {
		o.KeepChildOnDispose = true
	}

	if f.GracePeriod > 0 {
		o.GracePeriod = f.GracePeriod
	}

	if f.MaxLineSize > 0 {
		o.MaxLineSize = f.MaxLineSize
	}

	if f.DispatchBuffer > 0 {
		o.DispatchBuffer = f.DispatchBuffer
	}
}
