package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	BcryptCost  int    `envconfig:"BCRYPT_COST" default:"12"`

	// AppID tags checkout sessions and subscriptions so webhook events from
	// other apps on the same payment account can be told apart.
	AppID               string `envconfig:"APP_ID" default:"workflow-ai"`
	AppBaseURL          string `envconfig:"APP_BASE_URL" default:"http://localhost:5173"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" default:""`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" default:""`

	LLMEndpoint    string `envconfig:"LLM_ENDPOINT" default:""`
	LLMAPIKey      string `envconfig:"LLM_API_KEY" default:""`
	UploadEndpoint string `envconfig:"UPLOAD_ENDPOINT" default:""`

	TemplateSeedPath string `envconfig:"TEMPLATE_SEED_PATH" default:""`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
