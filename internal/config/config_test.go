package config_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"uxpulse/internal/config"
)

func TestLoad(t *testing.T) {
	Convey("Given a bare environment", t, func() {
		t.Setenv("UXPULSE_DATABASE_URL", "")
		t.Setenv("MIN_EVENTS_FOR_ISSUE", "")
		t.Setenv("ANALYSIS_WINDOW_HOURS", "")
		t.Setenv("FOUNDATION_MODEL_PROVIDER", "")
		t.Setenv("FOUNDATION_MODEL_NAME", "")

		cfg := config.Load()

		Convey("Then defaults apply", func() {
			So(cfg.ListenAddr, ShouldEqual, ":8000")
			So(cfg.MinEventsForIssue, ShouldEqual, 5)
			So(cfg.WindowHours, ShouldEqual, 24)
			So(cfg.ModelProvider, ShouldEqual, "openai")
			So(cfg.ModelName, ShouldEqual, "gpt-4o-mini")
		})
	})

	Convey("Given overrides in the environment", t, func() {
		t.Setenv("MIN_EVENTS_FOR_ISSUE", "10")
		t.Setenv("ANALYSIS_WINDOW_HOURS", "500")
		t.Setenv("UXPULSE_RETENTION_DAYS", "30")

		cfg := config.Load()

		Convey("Then the floor applies and the window is clamped", func() {
			So(cfg.MinEventsForIssue, ShouldEqual, 10)
			So(cfg.WindowHours, ShouldEqual, config.MaxWindowHours)
			So(cfg.RetentionDays, ShouldEqual, 30)
		})
	})
}

func TestClampWindowHours(t *testing.T) {
	Convey("Window bounds are enforced on both ends", t, func() {
		So(config.ClampWindowHours(0), ShouldEqual, config.MinWindowHours)
		So(config.ClampWindowHours(-3), ShouldEqual, config.MinWindowHours)
		So(config.ClampWindowHours(24), ShouldEqual, 24)
		So(config.ClampWindowHours(168), ShouldEqual, 168)
		So(config.ClampWindowHours(169), ShouldEqual, config.MaxWindowHours)
	})
}

func TestValidateModel(t *testing.T) {
	Convey("Model settings are validated before any network call", t, func() {
		cfg := &config.Config{ModelProvider: "openai", ModelAPIKey: "sk-test"}
		So(cfg.ValidateModel(), ShouldBeNil)

		Convey("An unsupported provider is an input error", func() {
			bad := &config.Config{ModelProvider: "anthropic", ModelAPIKey: "sk-test"}
			err := bad.ValidateModel()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "FOUNDATION_MODEL_PROVIDER")
		})

		Convey("A missing credential is an input error", func() {
			bad := &config.Config{ModelProvider: "openai"}
			err := bad.ValidateModel()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "FOUNDATION_MODEL_API_KEY")
		})
	})
}
