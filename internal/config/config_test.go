package config_test

import (
	"testing"

	"github.com/kuiperworks/kerf/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New()

		Convey("Then the service defaults are sensible", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.QueueSize, ShouldBeGreaterThan, 0)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.DedupeSize, ShouldBeGreaterThan, 0)
		})

		Convey("Then the quality tunables carry the program defaults", func() {
			So(cfg.ControlWindow, ShouldEqual, 25)
			So(cfg.MaxLotHistory, ShouldEqual, 500)
			So(cfg.HealthGoodAt, ShouldEqual, 90)
			So(cfg.HealthWatchAt, ShouldEqual, 70)
			So(cfg.DPPMGoodBelow, ShouldEqual, 100)
			So(cfg.DPPMWatchBelow, ShouldEqual, 200)
		})

		Convey("Then the default weight profile sums to 100", func() {
			sum := 0
			for _, w := range cfg.DefaultWeights {
				sum += w
			}
			So(sum, ShouldEqual, 100)
		})

		Convey("Then the defaults validate", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}
