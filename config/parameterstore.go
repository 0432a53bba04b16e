package config

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStoreConfig enables prod overrides from AWS SSM Parameter Store.
type ParameterStoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"` // e.g. "/pricewatch/prod"
}

// lookupFunc returns the value of a parameter, or "" when it is unavailable.
type lookupFunc func(name string) string

// apply overwrites the values that are kept in Parameter Store. Parameters
// that cannot be read leave the file/env value in place.
func (p ParameterStoreConfig) apply(cfg *Config, lookup lookupFunc) {
	if v := lookup(p.Prefix + "/ws_url"); v != "" {
		cfg.Binance.WS.URL = v
	}
	if v := lookup(p.Prefix + "/redis_password"); v != "" {
		cfg.Redis.Password = v
	}
}

func newSSMLookup() lookupFunc {
	return func(name string) string {
		return getParameterStoreValue(name, true)
	}
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
