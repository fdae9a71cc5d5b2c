package config

import (
	"errors"
	"fmt"

	"mrgnwatch/core"
	"mrgnwatch/internal/marginfi"

	"github.com/asaskevich/govalidator"
	configUtil "github.com/fox-one/pkg/config"
	"github.com/gagliardetto/solana-go"
)

const (
	defaultEndpoint   = "https://api.mainnet-beta.solana.com"
	defaultWsEndpoint = "wss://api.mainnet-beta.solana.com"
	defaultCommitment = "confirmed"
	defaultCacheSize  = 4096
	defaultReconnect  = 5
	defaultTimeout    = 10
)

// Load load config file, MRGN_ prefixed environment variables override it.
// Without a file the defaults apply.
func Load(configFile string, config *core.Config) error {
	configUtil.AutomaticLoadEnv("MRGN")
	if configFile != "" {
		if err := configUtil.LoadYaml(configFile, config); err != nil {
			return err
		}
	}

	withDefaults(config)
	return Validate(config)
}

func withDefaults(c *core.Config) {
	if c.RPC.Endpoint == "" {
		c.RPC.Endpoint = defaultEndpoint
	}
	if c.RPC.WsEndpoint == "" {
		c.RPC.WsEndpoint = defaultWsEndpoint
	}
	if c.RPC.Commitment == "" {
		c.RPC.Commitment = defaultCommitment
	}
	if c.Program.ID == "" {
		c.Program.ID = marginfi.ProgramID.String()
	}
	if c.Listener.CacheSize <= 0 {
		c.Listener.CacheSize = defaultCacheSize
	}
	if c.Listener.Reconnect <= 0 {
		c.Listener.Reconnect = defaultReconnect
	}
	if c.Alert.Timeout <= 0 {
		c.Alert.Timeout = defaultTimeout
	}
}

// Validate check endpoints, commitment and program id
func Validate(c *core.Config) error {
	if !govalidator.IsURL(c.RPC.Endpoint) {
		return fmt.Errorf("rpc.endpoint %q is not a url", c.RPC.Endpoint)
	}
	if !govalidator.IsRequestURL(c.RPC.WsEndpoint) {
		return fmt.Errorf("rpc.ws_endpoint %q is not a url", c.RPC.WsEndpoint)
	}
	if !govalidator.IsIn(c.RPC.Commitment, "processed", "confirmed", "finalized") {
		return fmt.Errorf("rpc.commitment %q is not processed, confirmed or finalized", c.RPC.Commitment)
	}
	if _, err := solana.PublicKeyFromBase58(c.Program.ID); err != nil {
		return fmt.Errorf("program.id: %w", err)
	}
	if c.Alert.URL != "" && !govalidator.IsRequestURL(c.Alert.URL) {
		return errors.New("alert.webhook is not a url")
	}

	return nil
}
