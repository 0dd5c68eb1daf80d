package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ConfigName = "pbinit.config"
	ConfigFile = ConfigName + ".json"
	EnvPrefix  = "PBINIT"

	DefaultURL          = "http://localhost:8090"
	DefaultTempPassword = "TempPassword123!"
	DefaultBcryptCost   = 12
	DefaultCollection   = "users"

	OrderDependency = "dependency"
	OrderDeclared   = "declared"
)

type Config struct {
	URL     string        `json:"url" mapstructure:"url" validate:"required,url"`
	Admin   AdminConfig   `json:"admin" mapstructure:"admin"`
	GodMode GodModeConfig `json:"god_mode" mapstructure:"god_mode"`
	Schema  SchemaConfig  `json:"schema" mapstructure:"schema"`
	HTTP    HTTPConfig    `json:"http" mapstructure:"http"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
}

type AdminConfig struct {
	Email    string `json:"email" mapstructure:"email" validate:"omitempty,email"`
	Password string `json:"password,omitempty" mapstructure:"password"`
}

type GodModeConfig struct {
	Emails       []string `json:"emails" mapstructure:"emails" validate:"dive,email"`
	Collection   string   `json:"collection" mapstructure:"collection" validate:"required"`
	TempPassword string   `json:"temp_password" mapstructure:"temp_password" validate:"required,min=8,max=72"`
	BcryptCost   int      `json:"bcrypt_cost" mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

type SchemaConfig struct {
	File  string `json:"file,omitempty" mapstructure:"file"`
	Order string `json:"order" mapstructure:"order" validate:"oneof=dependency declared"`
}

type HTTPConfig struct {
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	Retries int           `json:"retries" mapstructure:"retries" validate:"min=0,max=10"`
}

type LogConfig struct {
	Level string `json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `json:"json" mapstructure:"json"`
}

// SetDefaults registers every key on v so environment overrides are picked
// up by Unmarshal even when no config file is present.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("url", DefaultURL)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("god_mode.emails", []string{})
	v.SetDefault("god_mode.collection", DefaultCollection)
	v.SetDefault("god_mode.temp_password", DefaultTempPassword)
	v.SetDefault("god_mode.bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("schema.file", "")
	v.SetDefault("schema.order", OrderDependency)
	v.SetDefault("http.timeout", "0s")
	v.SetDefault("http.retries", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// ConfigureEnv binds PBINIT_* variables, e.g. PBINIT_GOD_MODE_EMAILS.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration held by the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.GodMode.Emails = splitEmails(cfg.GodMode.Emails)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Schema.Order == "" {
		cfg.Schema.Order = OrderDependency
	}

	return &cfg, nil
}

// splitEmails flattens comma separated entries and drops blanks.
func splitEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, e := range strings.Split(entry, ",") {
			if e = strings.TrimSpace(e); e != "" {
				out = append(out, e)
			}
		}
	}
	return out
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value %v)", fe.Namespace(), fe.Tag(), redact(fe)))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func redact(fe validator.FieldError) any {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return "***"
	}
	return fe.Value()
}

// HasAdmin reports whether admin credentials were supplied.
func (c *Config) HasAdmin() bool {
	return c.Admin.Email != "" && c.Admin.Password != ""
}

func IsInitialized() bool {
	_, err := os.Stat(ConfigFile)
	return err == nil
}
