package mpesa

import (
	"fmt"
	"strings"
	"time"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"

	TransactionTypePayBill = "CustomerPayBillOnline"
)

// BaseURLFor returns the Daraja host for an environment. Unknown environments return "".
func BaseURLFor(environment string) string {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "", EnvironmentSandbox:
		return SandboxBaseURL
	case EnvironmentProduction:
		return ProductionBaseURL
	default:
		return ""
	}
}

type Config struct {
	// Environment picks BaseURL when it is not set explicitly: sandbox or production.
	Environment     string        `mapstructure:"environment"`
	BaseURL         string        `mapstructure:"base_url"`
	ConsumerKey     string        `mapstructure:"consumer_key"`
	ConsumerSecret  string        `mapstructure:"consumer_secret"`
	ShortCode       string        `mapstructure:"short_code"`
	PassKey         string        `mapstructure:"pass_key"`
	CallbackURL     string        `mapstructure:"callback_url"`
	TransactionType string        `mapstructure:"transaction_type"`
	Timeout         time.Duration `mapstructure:"timeout"`
	// Location is the IANA zone used for the request timestamp. Empty means the local clock.
	Location string `mapstructure:"location"`
}

// Validate reports every missing gateway setting at once.
func (c Config) Validate() error {
	if BaseURLFor(c.Environment) == "" {
		return fmt.Errorf("%w: environment %q is neither %s nor %s", ErrMissingConfig, c.Environment,
			EnvironmentSandbox, EnvironmentProduction)
	}

	required := map[string]string{
		"base_url":        c.BaseURL,
		"consumer_key":    c.ConsumerKey,
		"consumer_secret": c.ConsumerSecret,
		"short_code":      c.ShortCode,
		"pass_key":        c.PassKey,
		"callback_url":    c.CallbackURL,
	}

	var missing []string
	for _, key := range []string{"base_url", "consumer_key", "consumer_secret", "short_code", "pass_key", "callback_url"} {
		if strings.TrimSpace(required[key]) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.Location != "" {
		if _, err := time.LoadLocation(c.Location); err != nil {
			return fmt.Errorf("%w: location: %v", ErrMissingConfig, err)
		}
	}

	return nil
}

// WithDefaultBaseURL fills BaseURL from Environment when it is empty.
func (c Config) WithDefaultBaseURL() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = BaseURLFor(c.Environment)
	}
	return c
}

func (c Config) transactionType() string {
	if c.TransactionType == "" {
		return TransactionTypePayBill
	}
	return c.TransactionType
}

func (c Config) location() *time.Location {
	if c.Location == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.Local
	}
	return loc
}
