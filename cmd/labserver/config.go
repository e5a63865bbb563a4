package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lucalangella/NEWTON-LAB/internal/core/physics"
)

// LabConfig is the on-disk configuration of the lab server.
type LabConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	QUICAddr   string `yaml:"quic_addr"`

	TickInterval time.Duration `yaml:"-"`
	LogLevel     string        `yaml:"log_level"`

	Physics physics.Config `yaml:"physics"`
}

// UnmarshalYAML accepts tick_interval as a duration string ("11ms").
func (c *LabConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain LabConfig
	aux := struct {
		plain        `yaml:",inline"`
		TickInterval string `yaml:"tick_interval"`
	}{plain: plain(*c)}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*c = LabConfig(aux.plain)
	if aux.TickInterval != "" {
		d, err := time.ParseDuration(aux.TickInterval)
		if err != nil {
			return err
		}
		c.TickInterval = d
	}
	return nil
}

func defaultLabConfig() LabConfig {
	return LabConfig{
		ListenAddr:   "127.0.0.1:8080",
		QUICAddr:     "127.0.0.1:8443",
		TickInterval: 11 * time.Millisecond,
		LogLevel:     "info",
		Physics:      physics.DefaultConfig(),
	}
}

// loadLabConfig reads the yaml file at path over the defaults. A missing
// path just returns the defaults.
func loadLabConfig(path string) (LabConfig, error) {
	cfg := defaultLabConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
