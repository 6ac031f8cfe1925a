package testcfg

import (
	"github.com/caarlos0/env/v11"
)

// Prefix namespaces the variables read by the ledger acceptance tests.
const Prefix = "LEDGER_TEST_"

// Config controls the logging of the ledger API acceptance tests.
type Config struct {
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

func parseConfig() (Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix})
	return cfg, err
}

// New reads LEDGER_TEST_* variables and panics on malformed values.
func New() Config {
	return env.Must(parseConfig())
}
