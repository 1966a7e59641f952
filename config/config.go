package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// SignerConfig references the key material of one signer node. Both fields
// are opaque secret-manager ids, resolved by the provisioning engine and
// never dereferenced here.
type SignerConfig struct {
	CipherKeySecretID string `mapstructure:"cipher_key_secret_id" yaml:"cipher_key_secret_id"`
	SKShareSecretID   string `mapstructure:"sk_share_secret_id" yaml:"sk_share_secret_id"`
}

// EnvironmentConfig is the full settings record for one mpc-recovery
// deployment environment. It is read-only after Load returns: nothing in
// this module mutates it, and no package-level state holds it.
type EnvironmentConfig struct {
	Env                      string         `mapstructure:"env" yaml:"env"`
	Project                  string         `mapstructure:"project" yaml:"project"`
	DockerImage              string         `mapstructure:"docker_image" yaml:"docker_image"`
	AccountCreatorID         string         `mapstructure:"account_creator_id" yaml:"account_creator_id"`
	AccountCreatorSKSecretID string         `mapstructure:"account_creator_sk_secret_id" yaml:"account_creator_sk_secret_id"`
	FastAuthPartnersSecretID string         `mapstructure:"fast_auth_partners_secret_id" yaml:"fast_auth_partners_secret_id"`
	SignerConfigs            []SignerConfig `mapstructure:"signer_configs" yaml:"signer_configs"`
	JWTSignaturePKURL        string         `mapstructure:"jwt_signature_pk_url" yaml:"jwt_signature_pk_url"`
	OTLPEndpoint             string         `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OpenTelemetryLevel       string         `mapstructure:"opentelemetry_level" yaml:"opentelemetry_level"`
}

// Load reads the environment config from ./config.yaml or ./config/config.yaml
// plus environment variables, and validates it.
func Load() (*EnvironmentConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads the environment config from an explicit file path.
func LoadFile(path string) (*EnvironmentConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*EnvironmentConfig, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		slog.Error("failed to read config file", slog.String("error", err.Error()))
		return nil, err
	}

	var cfg EnvironmentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration",
			slog.String("file", v.ConfigFileUsed()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the record against the schema: required fields present,
// values well-formed, signer list non-empty. The first violation is
// returned as a MissingFieldError, MalformedValueError, or EmptyListError.
func (c *EnvironmentConfig) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"env", c.Env},
		{"project", c.Project},
		{"docker_image", c.DockerImage},
		{"account_creator_id", c.AccountCreatorID},
		{"account_creator_sk_secret_id", c.AccountCreatorSKSecretID},
		{"fast_auth_partners_secret_id", c.FastAuthPartnersSecretID},
		{"jwt_signature_pk_url", c.JWTSignaturePKURL},
		{"otlp_endpoint", c.OTLPEndpoint},
		{"opentelemetry_level", c.OpenTelemetryLevel},
	}
	for _, f := range required {
		if f.value == "" {
			return &MissingFieldError{Field: f.field}
		}
	}

	if len(c.SignerConfigs) == 0 {
		return &EmptyListError{Field: "signer_configs"}
	}
	for i, sc := range c.SignerConfigs {
		if sc.CipherKeySecretID == "" {
			return &MissingFieldError{Field: fmt.Sprintf("signer_configs[%d].cipher_key_secret_id", i)}
		}
		if sc.SKShareSecretID == "" {
			return &MissingFieldError{Field: fmt.Sprintf("signer_configs[%d].sk_share_secret_id", i)}
		}
	}

	if _, err := ParseImageRef(c.DockerImage); err != nil {
		return &MalformedValueError{Field: "docker_image", Value: c.DockerImage, Reason: err.Error()}
	}

	urls := []struct {
		field string
		value string
	}{
		{"jwt_signature_pk_url", c.JWTSignaturePKURL},
		{"otlp_endpoint", c.OTLPEndpoint},
	}
	for _, f := range urls {
		if err := validateHTTPURL(f.value); err != nil {
			return &MalformedValueError{Field: f.field, Value: f.value, Reason: err.Error()}
		}
	}

	if err := validation.Validate(c.OpenTelemetryLevel,
		validation.In(LevelDebug, LevelInfo, LevelWarn, LevelError),
	); err != nil {
		return &MalformedValueError{
			Field:  "opentelemetry_level",
			Value:  c.OpenTelemetryLevel,
			Reason: "must be one of debug, info, warn, error",
		}
	}

	return nil
}

// YAML renders the record in its canonical serialized form. Reloading the
// output through LoadFile yields an identical record.
func (c *EnvironmentConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ImageRef is a parsed container image reference.
type ImageRef struct {
	Registry string
	Path     string
	Tag      string
}

// ParseImageRef splits a registry/path:tag image reference. Each of the
// three components must be non-empty; the registry may carry a port.
func ParseImageRef(ref string) (ImageRef, error) {
	slash := strings.Index(ref, "/")
	if slash <= 0 {
		return ImageRef{}, validation.NewError("validation_invalid_image", "must be in registry/path:tag format")
	}

	colon := strings.LastIndex(ref, ":")
	if colon < slash {
		return ImageRef{}, validation.NewError("validation_missing_tag", "image reference must carry a tag")
	}

	parsed := ImageRef{
		Registry: ref[:slash],
		Path:     ref[slash+1 : colon],
		Tag:      ref[colon+1:],
	}
	if parsed.Path == "" || parsed.Tag == "" {
		return ImageRef{}, validation.NewError("validation_invalid_image", "must be in registry/path:tag format")
	}

	return parsed, nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsed.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	if err := is.Host.Validate(parsed.Hostname()); err != nil {
		return validation.NewError("validation_invalid_host", "invalid host")
	}

	return nil
}
