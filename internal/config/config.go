// Package config loads and validates the relay server configuration from
// YAML, with ${VAR} environment expansion and defaults for optional fields.
package config

import "time"

// ServerConfig is the root configuration for a relay server instance.
type ServerConfig struct {
	Listen   ListenConfig   `yaml:"listen"`
	Database DBConfig       `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Archiver ArchiverConfig `yaml:"archiver"`
	Health   HealthConfig   `yaml:"health"`
}

// ListenConfig holds the listener endpoints.
type ListenConfig struct {
	// Addr is the TCP address clients connect to (host:port).
	Addr string `yaml:"addr"`

	// WSAddr enables the WebSocket bridge when non-empty (host:port).
	WSAddr string `yaml:"ws_addr"`
}

// DBConfig holds the Postgres connection for the auth/persistence gateway.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SessionConfig holds per-connection settings.
type SessionConfig struct {
	// WriteTimeout is the deadline applied to each outbound frame write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// HistoryLimit caps the number of entries served per history request.
	HistoryLimit int `yaml:"history_limit"`
}

// ArchiverConfig holds history archiver settings.
type ArchiverConfig struct {
	// QueueCapacity is the initial capacity of the archive queue. The queue
	// grows without bound; this only sizes the first allocation.
	QueueCapacity int `yaml:"queue_capacity"`

	// AppendTimeout bounds a single append to the gateway.
	AppendTimeout time.Duration `yaml:"append_timeout"`
}

// HealthConfig holds the optional health endpoint settings.
type HealthConfig struct {
	// Addr enables the HTTP health server when non-empty (host:port).
	Addr string `yaml:"addr"`
}
