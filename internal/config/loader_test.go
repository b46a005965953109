package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/scoreline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("SCORELINE_ADDR", ":8080")
			t.Setenv("SCORELINE_QUEUE_SIZE", "100000")
			t.Setenv("SCORELINE_WORKER_COUNT", "16")
			t.Setenv("SCORELINE_STORE", "sqlite")
			t.Setenv("SCORELINE_SQLITE_PATH", "/tmp/matches.db")
			t.Setenv("SCORELINE_HOME_PROBABILITY", "0.5")
			t.Setenv("SCORELINE_SEED", "42")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 100000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/matches.db")
				convey.So(cfg.HomeProbability, convey.ShouldEqual, 0.5)
				convey.So(cfg.Seed, convey.ShouldEqual, 42)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":7070"
log_format: json
stamp_count: 1000
max_offset_step: 5
dedupe_size: 10
`)
			t.Setenv(config.EnvConfigPath, path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load values from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.StampCount, convey.ShouldEqual, 1000)
				convey.So(cfg.MaxOffsetStep, convey.ShouldEqual, 5)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10)
				convey.So(cfg.QueueSize, convey.ShouldEqual, config.New(ctx).QueueSize)
			})

			convey.Convey("And env vars are set as well", func() {
				t.Setenv("SCORELINE_ADDR", ":6060")
				cfg, err := config.Load(ctx)

				convey.Convey("Then env should take precedence over the file", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
					convey.So(cfg.StampCount, convey.ShouldEqual, 1000)
				})
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv(config.EnvConfigPath, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric env var is malformed", func() {
			t.Setenv("SCORELINE_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the address is empty", func() {
			t.Setenv("SCORELINE_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the store is unknown", func() {
			t.Setenv("SCORELINE_STORE", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			// Setenv registers the restore; Unsetenv hides it for this test.
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoreline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
