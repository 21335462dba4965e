package config

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if strings.TrimSpace(c.RPCAddress) == "" {
		err = multierr.Append(err, fmt.Errorf("RPCAddress must be set"))
	}
	switch c.Backend {
	case BackendLevelDB, BackendBolt:
		if strings.TrimSpace(c.DataDir) == "" {
			err = multierr.Append(err, fmt.Errorf("DataDir must be set for the %s backend", c.Backend))
		}
	case BackendMemory:
	default:
		err = multierr.Append(err, fmt.Errorf("Backend must be one of %s, %s, %s", BackendLevelDB, BackendBolt, BackendMemory))
	}
	if c.ChainID == 0 {
		err = multierr.Append(err, fmt.Errorf("ChainID must be positive"))
	}
	if c.Auction.MaxBids <= 0 {
		err = multierr.Append(err, fmt.Errorf("auction: MaxBids must be positive"))
	}
	if c.RPC.RequestsPerMinute < 0 || c.RPC.Burst < 0 {
		err = multierr.Append(err, fmt.Errorf("rpc: rate limits must not be negative"))
	}
	if c.RPC.RequestsPerMinute > 0 && c.RPC.Burst == 0 {
		err = multierr.Append(err, fmt.Errorf("rpc: Burst must be positive when RequestsPerMinute is set"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		err = multierr.Append(err, fmt.Errorf("telemetry: SampleRatio must be within [0, 1]"))
	}
	return err
}
