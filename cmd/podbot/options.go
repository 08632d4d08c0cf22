package main

import (
	"path/filepath"

	"github.com/edhtools/podbot/internal/tourney"
)

type Options struct {
	Addr     string          `toml:"addr"`
	APIToken string          `toml:"api-token"`
	DataDir  string          `toml:"data-dir"`
	Tourney  tourney.Options `toml:"tourney"`
}

func (o *Options) FillDefaults() {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:8080"
	}
	if o.DataDir == "" {
		o.DataDir = "data"
	}
}

func (o *Options) TournamentsPath() string {
	return filepath.Join(o.DataDir, "tournaments.json")
}

func (o *Options) StatsPath() string {
	return filepath.Join(o.DataDir, "message_stats.json")
}
