package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gridbet/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Point dotenv at a file that does not exist unless a case writes it.
		noDotenv(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GRIDBET_ADDR", ":8080")
			_ = os.Setenv("GRIDBET_API_BASE_URL", "https://f1.example.com")
			_ = os.Setenv("GRIDBET_SLOT_COUNT", "5")
			_ = os.Setenv("GRIDBET_SESSION_IDLE_TTL_SECONDS", "60")
			_ = os.Setenv("GRIDBET_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "https://f1.example.com")
				convey.So(cfg.SlotCount, convey.ShouldEqual, 5)
				convey.So(cfg.SessionIdleTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.BetTypeCode, convey.ShouldEqual, "top10")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
api_base_url: "http://backend:8000"
slot_count: 3
bet_type_code: "podium"
max_sessions: 50
metrics_enabled: false
instance: "eu-1"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("GRIDBET_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://backend:8000")
				convey.So(cfg.SlotCount, convey.ShouldEqual, 3)
				convey.So(cfg.BetTypeCode, convey.ShouldEqual, "podium")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 50)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.Instance, convey.ShouldEqual, "eu-1")
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("GRIDBET_SLOT_COUNT", "7")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SlotCount, convey.ShouldEqual, 7)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			tmpFile := createTempConfigFile(t, "addr: [unterminated\n")
			_ = os.Setenv("GRIDBET_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("GRIDBET_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a dotenv file is provided", func() {
			path := filepath.Join(t.TempDir(), "gridbet.env")
			content := "GRIDBET_API_BASE_URL=http://dotenv:8000\nGRIDBET_USER_AGENT=from-dotenv\n"
			convey.So(os.WriteFile(path, []byte(content), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("GRIDBET_ENV_FILE", path)
			_ = os.Setenv("GRIDBET_USER_AGENT", "from-env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values apply without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://dotenv:8000")
				convey.So(cfg.UserAgent, convey.ShouldEqual, "from-env")
			})
		})

		convey.Convey("When an explicit dotenv file is missing", func() {
			_ = os.Setenv("GRIDBET_ENV_FILE", filepath.Join(t.TempDir(), "nope.env"))
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigLoaderValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		noDotenv(t)
		defer clearConfigEnvVars()

		convey.Convey("When slot_count is zero", func() {
			_ = os.Setenv("GRIDBET_SLOT_COUNT", "0")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When api_base_url is blank", func() {
			_ = os.Setenv("GRIDBET_API_BASE_URL", " ")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric field is not a number", func() {
			_ = os.Setenv("GRIDBET_MAX_SESSIONS", "many")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

var configEnvVars = []string{ //nolint:gochecknoglobals // test fixture
	"GRIDBET_CONFIG",
	"GRIDBET_ENV_FILE",
	"GRIDBET_ADDR",
	"GRIDBET_API_BASE_URL",
	"GRIDBET_USER_AGENT",
	"GRIDBET_SLOT_COUNT",
	"GRIDBET_SESSION_IDLE_TTL_SECONDS",
	"GRIDBET_LOG_FORMAT",
	"GRIDBET_MAX_SESSIONS",
}

func clearConfigEnvVars() {
	for _, envVar := range configEnvVars {
		_ = os.Unsetenv(envVar)
	}
}

// noDotenv keeps a stray .env in the package directory out of the tests.
func noDotenv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridbet-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
