package maincmd

import "github.com/caarlos0/env/v6"

// EnvConfig holds process-wide VM defaults overridable via LAKE_-prefixed
// environment variables, read once per invocation: default float precision,
// plus the freelist cap (a read-mostly
// setting in the same spirit, see lang/machine.VM.FreelistCap).
type EnvConfig struct {
	FloatPrecision uint `env:"LAKE_FLOAT_PRECISION" envDefault:"0"`
	FreelistCap    int  `env:"LAKE_FREELIST_CAP" envDefault:"0"`
}

// loadEnvConfig parses the environment into an EnvConfig; a zero field
// means "use the VM's built-in default".
func loadEnvConfig() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}
