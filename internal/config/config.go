package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr string `yaml:"addr"` // e.g. :8080
}

type LED struct {
	Driver     string `yaml:"driver"` // "strip" | "sim"
	Count      int    `yaml:"count"`
	ColorOrder string `yaml:"color_order"` // e.g. GRB, RGB
	SpeedHz    int    `yaml:"speed_hz"`    // e.g. 2400000
}

type Editor struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Config struct {
	FPS        int     `yaml:"fps"`
	Brightness float64 `yaml:"brightness"`
	CurvesPath string  `yaml:"curves_path"`

	Server Server `yaml:"server"`
	LED    LED    `yaml:"led"`
	Editor Editor `yaml:"editor"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
