package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Engine.Owner == "" {
		return errors.New("engine.owner is required")
	}
	if _, err := c.Engine.OwnerHash(); err != nil {
		return fmt.Errorf("engine.owner: %w", err)
	}
	if c.Engine.InitialDeposit < 1 {
		return errors.New("engine.initial_deposit must be >= 1")
	}

	switch c.Storage.Type {
	case StorageInMemory:
	case StorageBoltDB, StorageLevelDB:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for %s storage", c.Storage.Type)
		}
	default:
		return fmt.Errorf("storage.type must be one of %s, %s, %s, got %q",
			StorageInMemory, StorageBoltDB, StorageLevelDB, c.Storage.Type)
	}

	if _, err := zap.ParseAtomicLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	if c.Logger.Encoding != "console" && c.Logger.Encoding != "json" {
		return fmt.Errorf("logger.encoding must be console or json, got %q", c.Logger.Encoding)
	}

	seen := make(map[string]struct{}, len(c.Sandbox.Tokens))
	for i, tok := range c.Sandbox.Tokens {
		if err := tok.validate(fmt.Sprintf("sandbox.tokens[%d]", i)); err != nil {
			return err
		}
		if _, ok := seen[tok.Symbol.String()]; ok {
			return fmt.Errorf("sandbox.tokens[%d]: duplicate symbol %s", i, tok.Symbol)
		}
		seen[tok.Symbol.String()] = struct{}{}
	}

	return nil
}

func (t *TokenConfig) validate(prefix string) error {
	if t.Symbol == (common.Symbol{}) {
		return fmt.Errorf("%s.symbol is required", prefix)
	}
	if t.Decimals < 0 || t.Decimals > registry.MaxDecimals {
		return fmt.Errorf("%s.decimals: %w: must be in [0, %d]", prefix, registry.ErrInvalidDecimals, registry.MaxDecimals)
	}
	for addr, units := range t.Holders {
		if _, err := address.StringToUint160(addr); err != nil {
			return fmt.Errorf("%s.holders: invalid address %q: %w", prefix, addr, err)
		}
		if units < 1 {
			return fmt.Errorf("%s.holders[%s] must be >= 1", prefix, addr)
		}
	}
	return nil
}
