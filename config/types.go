package config

import "strings"

// Auction bounds auction record storage.
type Auction struct {
	MaxBids     int    `toml:"MaxBids"`
	RentPerByte uint64 `toml:"RentPerByte"`
}

// RPC configures the JSON-RPC listener. Write methods require either the
// static bearer token or an HS256 JWT signed with JWTSecret.
type RPC struct {
	AuthToken         string `toml:"AuthToken" env:"AUCTION_RPC_TOKEN"`
	JWTSecret         string `toml:"JWTSecret" env:"AUCTION_JWT_SECRET"`
	JWTIssuer         string `toml:"JWTIssuer"`
	RequestsPerMinute int    `toml:"RequestsPerMinute"`
	Burst             int    `toml:"Burst"`
	ReadTimeout       int    `toml:"ReadTimeout"`
	WriteTimeout      int    `toml:"WriteTimeout"`
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint" env:"AUCTION_OTLP_ENDPOINT"`
	Headers     string  `toml:"Headers" env:"AUCTION_OTLP_HEADERS"`
	Insecure    bool    `toml:"Insecure"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Logging configures structured log output.
type Logging struct {
	Level      string `toml:"Level" env:"AUCTION_LOG_LEVEL"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Pauses are operator switches that reject every transaction for a module.
type Pauses struct {
	Bank    bool `toml:"Bank"`
	Token   bool `toml:"Token"`
	Auction bool `toml:"Auction"`
}

// IsPaused reports the switch for a module name.
func (p Pauses) IsPaused(module string) bool {
	switch strings.ToLower(strings.TrimSpace(module)) {
	case "bank":
		return p.Bank
	case "token":
		return p.Token
	case "auction":
		return p.Auction
	default:
		return false
	}
}
