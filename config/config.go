package config

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ppelicano/laokas-smart-contract/common"
)

// Config is the root configuration of the recruitment service.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Logger  LoggerConfig  `yaml:"logger"`
	API     APIConfig     `yaml:"api"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// EngineConfig holds engine parameters.
type EngineConfig struct {
	Name string `yaml:"name"`
	// Neo address of the engine owner.
	Owner string `yaml:"owner"`
	// Whole tokens pulled by each initial deposit.
	InitialDeposit      int64 `yaml:"initial_deposit"`
	LenientDepositIndex bool  `yaml:"lenient_deposit_index"`
}

// OwnerHash decodes owner address.
func (c EngineConfig) OwnerHash() (util.Uint160, error) {
	res, err := address.StringToUint160(c.Owner)
	if err != nil {
		return res, fmt.Errorf("decode owner address %q: %w", c.Owner, err)
	}
	return res, nil
}

// Storage types.
const (
	StorageInMemory = "inmemory"
	StorageBoltDB   = "boltdb"
	StorageLevelDB  = "leveldb"
)

// StorageConfig selects engine state storage.
type StorageConfig struct {
	Type string `yaml:"type"`
	// Database file for boltdb, database directory for leveldb.
	Path string `yaml:"path"`
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Address string `yaml:"address"`
	// Requests must carry X-API-Key header with this value. Empty key
	// disables the check.
	APIKey string `yaml:"api_key"`
}

// SandboxConfig describes tokens created by the service itself.
type SandboxConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig describes sandbox token.
type TokenConfig struct {
	Symbol   common.Symbol `yaml:"symbol"`
	Decimals int           `yaml:"decimals"`
	// Initial balances in whole tokens by Neo address. Minted once, when the
	// token has no supply yet.
	Holders map[string]int64 `yaml:"holders"`
}
