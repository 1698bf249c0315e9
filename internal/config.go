package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Wiki      WikiConfig        `yaml:"wiki"`
	Widgets   WidgetsConfig     `yaml:"widgets"`
	RenderLog RenderLogConfig   `yaml:"render_log"`
	Auth      AuthConfig        `yaml:"auth"`
	Index     IndexConfig       `yaml:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Wiki.Validate(); err != nil {
		return fmt.Errorf("wiki: %w", err)
	}
	if err := c.Widgets.Validate(); err != nil {
		return fmt.Errorf("widgets: %w", err)
	}
	if err := c.RenderLog.Validate(); err != nil {
		return fmt.Errorf("render_log: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WikiConfig describes the Wiki.js GraphQL endpoint.
//
// Headers are forwarded verbatim on every request; put an API key here as
// "Authorization: Bearer ${WIKI_TOKEN}" when the wiki is not public.
type WikiConfig struct {
	Endpoint  string            `yaml:"endpoint"`
	Timeout   time.Duration     `yaml:"timeout"`
	Headers   map[string]string `yaml:"headers"`
	RateLimit float64           `yaml:"rate_limit"`
	Burst     int               `yaml:"burst"`
}

// Validate validates the wiki configuration.
func (c *WikiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// WidgetsConfig holds the widget definition and snapshot directories.
type WidgetsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dir       string `yaml:"dir"`
	OutputDir string `yaml:"output_dir"`
}

// Validate validates the widgets configuration.
func (c *WidgetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.OutputDir, validation.When(c.Enabled, validation.Required)),
	)
}

// RenderLogConfig holds the render log database configuration.
// An empty path disables the render log.
type RenderLogConfig struct {
	Path string `yaml:"path"`
	Keep int    `yaml:"keep"`
}

// Validate validates the render log configuration.
func (c *RenderLogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Keep, validation.Min(0)),
	)
}

// Enabled reports whether renders are recorded.
func (c *RenderLogConfig) Enabled() bool {
	return c.Path != ""
}

// IndexConfig holds index defaults applied when a request or definition
// leaves them out.
type IndexConfig struct {
	Depth   int    `yaml:"depth"`
	Heading string `yaml:"heading"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Depth, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.Heading, validation.Required, validation.Length(1, 120)),
	)
}

// AuthConfig holds authentication configuration for this service's own API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Wiki: WikiConfig{
			Endpoint: "http://localhost:3000/graphql",
			Timeout:  30 * time.Second,
			Headers:  map[string]string{},
		},
		Widgets: WidgetsConfig{
			Enabled:   true,
			Dir:       "./widgets",
			OutputDir: "./public/index",
		},
		RenderLog: RenderLogConfig{
			Path: "./autoindex.db",
			Keep: 500,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Index: IndexConfig{
			Depth:   1,
			Heading: "Index",
		},
	}
}
