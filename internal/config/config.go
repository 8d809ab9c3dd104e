package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Provider struct {
		URL         string `yaml:"url"`
		CategoryURL string `yaml:"category_url"`
		Timeout     string `yaml:"timeout"`
		CategoryTTL string `yaml:"category_ttl"`
	} `yaml:"provider"`
	Quiz struct {
		SecondsPerQuestion int    `yaml:"seconds_per_question"`
		RevealDelay        string `yaml:"reveal_delay"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Slot string `yaml:"slot"`
		File string `yaml:"file"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DurationOr parses a duration string or returns the fallback if empty or
// unparsable.
func DurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
