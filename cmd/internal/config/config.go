// Package config loads the API settings from the environment.
package config

import (
	"context"
	errs "errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

const (
	EnvProduction = "production"

	defaultSSMPrefix = "/sharenotes/prod/"
	defaultRegion    = "us-east-2"
)

type Config struct {
	Env       string
	Port      int    `validate:"min=1,max=65535"`
	DBPath    string `validate:"required"`
	MachineID int64  `validate:"min=0,max=1023"`

	AWSRegion          string `validate:"required"`
	CognitoUserPoolID  string `validate:"required_without=JWTSecret"`
	CognitoAppClientID string `validate:"required_with=CognitoUserPoolID"`

	// JWTSecret switches token validation to HS256, for development without Cognito.
	JWTSecret string

	S3Bucket  string
	S3BaseURL string

	GatewayEndpoint string
	GatewaySecret   string

	StoreTimeout   time.Duration `validate:"min=1ms"`
	EditorDebounce time.Duration `validate:"min=1ms"`

	LogLevel string `validate:"oneof=DEBUG INFO WARN ERROR OFF"`
	LogFile  string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load exports the environment of the current stage and parses it.
// Production reads AWS SSM Parameter Store, anything else an optional .env file.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("GO_ENV") == EnvProduction {
		if err := loadProdEnv(ctx); err != nil {
			return nil, err
		}
	} else if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv parses and validates the settings, reporting every problem at once.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if val, ok := lookup(key); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
		return def
	}

	var retErr error
	parseInt := func(key, def string) int64 {
		val, err := strconv.ParseInt(get(key, def), 10, 64)
		if err != nil {
			retErr = errs.Join(retErr, errors.Wrapf(err, "parsing %s", key))
		}
		return val
	}
	parseDuration := func(key, def string) time.Duration {
		val, err := time.ParseDuration(get(key, def))
		if err != nil {
			retErr = errs.Join(retErr, errors.Wrapf(err, "parsing %s", key))
		}
		return val
	}

	cfg := &Config{
		Env:                get("GO_ENV", "development"),
		Port:               int(parseInt("PORT", "7070")),
		DBPath:             get("DB_PATH", "sharenotes.db"),
		MachineID:          parseInt("SNOWFLAKE_NODE", "0"),
		AWSRegion:          get("AWS_REGION", defaultRegion),
		CognitoUserPoolID:  get("COGNITO_USER_POOL_ID", ""),
		CognitoAppClientID: get("COGNITO_APP_CLIENT_ID", ""),
		JWTSecret:          get("JWT_HMAC_SECRET", ""),
		S3Bucket:           get("S3_BUCKET", ""),
		S3BaseURL:          get("S3_BASE_URL", ""),
		GatewayEndpoint:    get("WS_GATEWAY_ENDPOINT", ""),
		GatewaySecret:      get("WS_GATEWAY_SECRET", ""),
		StoreTimeout:       parseDuration("STORE_TIMEOUT", "5s"),
		EditorDebounce:     parseDuration("EDITOR_DEBOUNCE", "1s"),
		LogLevel:           strings.ToUpper(get("LOG_LEVEL", "INFO")),
		LogFile:            get("LOG_FILE", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "invalid configuration"))
	}

	if cfg.IsProduction() && cfg.JWTSecret != "" {
		retErr = errs.Join(retErr, errors.New("JWT_HMAC_SECRET must not be used in production"))
	}

	if retErr != nil {
		return nil, retErr
	}
	return cfg, nil
}

// loadProdEnv exports every parameter under the SSM prefix as an environment variable.
func loadProdEnv(ctx context.Context) error {
	prefix := os.Getenv("SSM_PREFIX")
	if prefix == "" {
		prefix = defaultSSMPrefix
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return errors.Wrap(err, "loading aws config for ssm")
	}

	client := ssm.NewFromConfig(cfg)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})

	count := 0
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "loading prod environment")
		}

		for _, param := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(param.Name), prefix)
			if err := os.Setenv(key, aws.ToString(param.Value)); err != nil {
				return errors.Wrapf(err, "exporting %s", key)
			}
			count++
		}
	}

	log.Debugf("loaded %d prod environment variables", count)
	return nil
}
