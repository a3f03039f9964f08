package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultMockAPIURL is the hosted Postman mock used when MOCK_API_URL is unset.
const DefaultMockAPIURL = "https://38c7103a-8b55-4ca9-b297-4b802d0be29f.mock.pstmn.io"

type EnvVars struct {
	AppEnv string `envconfig:"ENV" default:"dev"`

	MockAPIURL string `envconfig:"MOCK_API_URL" default:"https://38c7103a-8b55-4ca9-b297-4b802d0be29f.mock.pstmn.io"`
	// LocalMock starts the in-process mock server and ignores MOCK_API_URL.
	LocalMock   bool          `envconfig:"LOCAL_MOCK" default:"true"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`

	// mock-fintech server
	Port           int           `envconfig:"PORT" default:"9000"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	DefinitionsDir string        `envconfig:"DEFINITIONS_DIR" default:"definitions/scenarios"`

	// fintech-smoke runner
	ReportDir string `envconfig:"REPORT_DIR" default:"allure-results"`
	Workers   int    `envconfig:"WORKERS" default:"3"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadEnv reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadEnv(files ...string) (*EnvVars, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	if v.Workers < 1 {
		v.Workers = 1
	}
	return &v, nil
}
