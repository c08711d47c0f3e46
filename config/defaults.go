package config

// Default values for optional configuration fields.
const (
	DefaultEngineName     = "recruitment"
	DefaultInitialDeposit = 1000
	DefaultStorageType    = StorageInMemory
	DefaultLogLevel       = "info"
	DefaultLogEncoding    = "console"
	DefaultAPIAddress     = ":8080"
)

func (c *Config) applyDefaults() {
	if c.Engine.Name == "" {
		c.Engine.Name = DefaultEngineName
	}
	if c.Engine.InitialDeposit == 0 {
		c.Engine.InitialDeposit = DefaultInitialDeposit
	}

	if c.Storage.Type == "" {
		c.Storage.Type = DefaultStorageType
	}

	if c.Logger.Level == "" {
		c.Logger.Level = DefaultLogLevel
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = DefaultLogEncoding
	}

	if c.API.Address == "" {
		c.API.Address = DefaultAPIAddress
	}
}
