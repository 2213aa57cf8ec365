package config

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/presbrey/ircclient/irc"
	"github.com/presbrey/ircclient/wait"
)

// Duration is a time.Duration written as "2s" or "5m" in every format
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the client configuration
type Config struct {
	// Server to connect to
	Server struct {
		Host string `yaml:"host" toml:"host" json:"host" env:"IRCC_HOST" validate:"required,hostname_rfc1123|ip"`
		Port int    `yaml:"port" toml:"port" json:"port" env:"IRCC_PORT" validate:"min=1,max=65535"`
	} `yaml:"server" toml:"server" json:"server"`

	// Registration identity
	Identity struct {
		Nick     string `yaml:"nick" toml:"nick" json:"nick" env:"IRCC_NICK" validate:"required"`
		AltNick  string `yaml:"alt_nick" toml:"alt_nick" json:"alt_nick" env:"IRCC_ALT_NICK"`
		Username string `yaml:"username" toml:"username" json:"username" env:"IRCC_USERNAME"`
		RealName string `yaml:"realname" toml:"realname" json:"realname" env:"IRCC_REALNAME"`
		UserInfo string `yaml:"userinfo" toml:"userinfo" json:"userinfo" env:"IRCC_USERINFO"`
	} `yaml:"identity" toml:"identity" json:"identity"`

	// Commands run after registration, e.g. "/join #go-nuts"
	Perform []string `yaml:"perform" toml:"perform" json:"perform" env:"IRCC_PERFORM"`

	Reconnect struct {
		Enabled bool     `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCC_RECONNECT"`
		Base    Duration `yaml:"base" toml:"base" json:"base" env:"IRCC_RECONNECT_BASE"`
		Jitter  Duration `yaml:"jitter" toml:"jitter" json:"jitter" env:"IRCC_RECONNECT_JITTER"`
		Max     Duration `yaml:"max" toml:"max" json:"max" env:"IRCC_RECONNECT_MAX"`
	} `yaml:"reconnect" toml:"reconnect" json:"reconnect"`

	// Outgoing flood control; a zero rate disables it
	Flood struct {
		Rate  float64 `yaml:"rate" toml:"rate" json:"rate" env:"IRCC_FLOOD_RATE" validate:"gte=0"`
		Burst int     `yaml:"burst" toml:"burst" json:"burst" env:"IRCC_FLOOD_BURST" validate:"gte=0"`
	} `yaml:"flood" toml:"flood" json:"flood"`

	Transcript struct {
		Driver string `yaml:"driver" toml:"driver" json:"driver" env:"IRCC_TRANSCRIPT_DRIVER" validate:"omitempty,oneof=sqlite mysql postgres"`
		DSN    string `yaml:"dsn" toml:"dsn" json:"dsn" env:"IRCC_TRANSCRIPT_DSN" validate:"required_with=Driver"`
	} `yaml:"transcript" toml:"transcript" json:"transcript"`

	Metrics struct {
		Listen string `yaml:"listen" toml:"listen" json:"listen" env:"IRCC_METRICS_LISTEN" validate:"omitempty,hostname_port"`
	} `yaml:"metrics" toml:"metrics" json:"metrics"`

	Debug bool `yaml:"debug" toml:"debug" json:"debug" env:"IRCC_DEBUG"`

	// Configuration source for reloading
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 6667
	cfg.Reconnect.Enabled = true
	cfg.Reconnect.Base.Duration = irc.DefaultReconnectBase
	cfg.Reconnect.Jitter.Duration = irc.DefaultReconnectJitter
	cfg.Reconnect.Max.Duration = irc.DefaultReconnectMax
	cfg.Flood.Rate = 2
	cfg.Flood.Burst = 5
	return cfg
}

// Load loads configuration from a file or URL, applies IRCC_* environment
// overrides and validates the result. An empty source loads defaults and
// the environment only.
func Load(source string) (*Config, error) {
	cfg := Default()

	if source != "" {
		if err := cfg.loadFromSource(source); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reload reloads the configuration from the original source or a new source
func (c *Config) Reload(newSource string) error {
	if newSource == "" {
		newSource = c.Source
	}
	newCfg, err := Load(newSource)
	if err != nil {
		return err
	}
	*c = *newCfg
	return nil
}

// loadFromSource loads configuration from a file or URL
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	// Check if the source is a URL
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return fmt.Errorf("failed to load config from URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read config from URL: %w", err)
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Determine the format based on file extension
	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		// .yaml, .yml and anything else
		err = yaml.Unmarshal(data, c)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report yaml key names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration for missing or malformed settings
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Reconnect.Max.Duration > 0 && c.Reconnect.Max.Duration < c.Reconnect.Base.Duration {
		return fmt.Errorf("invalid config: reconnect.max %s is below reconnect.base %s", c.Reconnect.Max, c.Reconnect.Base)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	return applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// applyEnvOverridesRecursive walks nested structs and sets every field whose
// env tag names a variable that is set
func applyEnvOverridesRecursive(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" {
			if field.Type.Kind() == reflect.Struct {
				if err := applyEnvOverridesRecursive(fieldValue); err != nil {
					return err
				}
			}
			continue
		}

		envValue, exists := os.LookupEnv(envTag)
		if !exists {
			continue
		}
		if err := setFieldFromEnv(fieldValue, envValue); err != nil {
			return fmt.Errorf("failed to apply %s: %w", envTag, err)
		}
	}
	return nil
}

// setFieldFromEnv sets a field's value from an environment variable
func setFieldFromEnv(field reflect.Value, envValue string) error {
	if field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(envValue))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.Bool:
		field.SetBool(parseBool(envValue))
	case reflect.Slice:
		// commas would split perform commands, so slices are ;-separated
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(envValue, ";")
			slice := reflect.MakeSlice(field.Type(), 0, len(values))
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					slice = reflect.Append(slice, reflect.ValueOf(v))
				}
			}
			field.Set(slice)
		}
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "y"
}

// Address returns the host:port to connect to
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ConnectParams returns the session registration parameters
func (c *Config) ConnectParams() irc.ConnectParams {
	return irc.ConnectParams{
		Server:   c.Server.Host,
		Port:     c.Server.Port,
		Nick:     c.Identity.Nick,
		AltNick:  c.Identity.AltNick,
		User:     c.Identity.Username,
		RealName: c.Identity.RealName,
	}
}

// SessionOptions returns the session options described by the configuration
func (c *Config) SessionOptions() irc.Options {
	opts := irc.Options{
		Perform:     c.Perform,
		NoReconnect: !c.Reconnect.Enabled,
		UserInfo:    c.Identity.UserInfo,
		Backoff:     wait.NewExponentialBackoff(c.Reconnect.Base.Duration, c.Reconnect.Jitter.Duration, c.Reconnect.Max.Duration),
	}
	if c.Flood.Rate > 0 {
		burst := c.Flood.Burst
		if burst < 1 {
			burst = 1
		}
		opts.Connection.Limiter = rate.NewLimiter(rate.Limit(c.Flood.Rate), burst)
	}
	return opts
}
