package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

type EnvTestSuite struct {
	suite.Suite
	tempDir string
}

func TestEnvSuite(t *testing.T) {
	suite.Run(t, new(EnvTestSuite))
}

func (suite *EnvTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "env-test-*")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	for _, key := range []string{"DATA_DIR", "PROVIDER", "POLYGON_API_KEY", "SINA_BASE_URL", "TIMEZONE", "LOG_LEVEL"} {
		suite.T().Setenv(Prefix+"_"+key, "")
		os.Unsetenv(Prefix + "_" + key)
	}
}

func (suite *EnvTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *EnvTestSuite) TestDefaults() {
	settings, err := Load(filepath.Join(suite.tempDir, "missing.env"))
	suite.Require().NoError(err)

	suite.Equal(".cache/realtime", settings.DataDir)
	suite.Equal(provider.ProviderSina, settings.ProviderType())
	suite.Equal("info", settings.LogLevel)

	loc, err := settings.Location()
	suite.Require().NoError(err)
	suite.Equal(time.Local, loc)
}

func (suite *EnvTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("ARGO_RT_DATA_DIR", "/var/lib/realtime")
	suite.T().Setenv("ARGO_RT_PROVIDER", "polygon")
	suite.T().Setenv("ARGO_RT_POLYGON_API_KEY", "secret")
	suite.T().Setenv("ARGO_RT_TIMEZONE", "UTC")

	settings, err := Load(filepath.Join(suite.tempDir, "missing.env"))
	suite.Require().NoError(err)

	suite.Equal("/var/lib/realtime", settings.DataDir)
	suite.Equal(provider.PolygonConfig{ApiKey: "secret"}, settings.ProviderConfig())

	loc, err := settings.Location()
	suite.Require().NoError(err)
	suite.Equal("UTC", loc.String())
}

func (suite *EnvTestSuite) TestDotEnvFile() {
	path := filepath.Join(suite.tempDir, ".env")
	suite.Require().NoError(os.WriteFile(path, []byte("ARGO_RT_PROVIDER=binance\nARGO_RT_LOG_LEVEL=debug\n"), 0644))

	settings, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(provider.ProviderBinance, settings.ProviderType())
	suite.Equal("debug", settings.LogLevel)
	suite.Nil(settings.ProviderConfig())
}

func (suite *EnvTestSuite) TestInvalidTimezone() {
	settings := Settings{Timezone: "Mars/Olympus"}

	_, err := settings.Location()
	suite.Error(err)
}
