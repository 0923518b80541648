package pareto_test

import (
	"testing"

	model "github.com/kuiperworks/kerf/internal/domain/model"
	pareto "github.com/kuiperworks/kerf/internal/domain/pareto"
	. "github.com/smartystreets/goconvey/convey"
)

func failuresWithModes(modes ...string) []model.FailureRecord {
	out := make([]model.FailureRecord, len(modes))
	for i, mode := range modes {
		out[i] = model.FailureRecord{ID: mode + "-failure", Mode: mode}
	}
	return out
}

func TestTopModes(t *testing.T) {
	Convey("Given a log of failures across modes", t, func() {
		failures := failuresWithModes(
			"wire bond lift", "wire bond lift", "wire bond lift",
			"solder void", "solder void",
			"delamination",
		)

		Convey("When ranking all modes", func() {
			entries := pareto.TopModes(failures, 10)

			Convey("Then counts descend with shares accumulating to one", func() {
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Mode, ShouldEqual, "wire bond lift")
				So(entries[0].Count, ShouldEqual, 3)
				So(entries[0].Share, ShouldAlmostEqual, 0.5, 1e-12) // 3/6
				So(entries[0].Cumulative, ShouldAlmostEqual, 0.5, 1e-12)
				So(entries[1].Mode, ShouldEqual, "solder void")
				So(entries[1].Share, ShouldAlmostEqual, 1.0/3.0, 1e-12)
				So(entries[1].Cumulative, ShouldAlmostEqual, 5.0/6.0, 1e-12)
				So(entries[2].Mode, ShouldEqual, "delamination")
				So(entries[2].Cumulative, ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When the listing is truncated", func() {
			entries := pareto.TopModes(failures, 2)

			Convey("Then shares stay relative to the full total", func() {
				So(entries, ShouldHaveLength, 2)
				So(entries[1].Cumulative, ShouldAlmostEqual, 5.0/6.0, 1e-12)
			})
		})

		Convey("When modes tie on count", func() {
			tied := failuresWithModes("solder void", "delamination", "solder void", "delamination")
			entries := pareto.TopModes(tied, 10)

			Convey("Then ties break by mode name ascending", func() {
				So(entries[0].Mode, ShouldEqual, "delamination")
				So(entries[1].Mode, ShouldEqual, "solder void")
			})
		})

		Convey("When top is not given", func() {
			many := failuresWithModes("a", "b", "c", "d", "e", "f")
			entries := pareto.TopModes(many, 0)

			Convey("Then the default of five applies", func() {
				So(entries, ShouldHaveLength, 5)
			})
		})

		Convey("When there are no failures", func() {
			entries := pareto.TopModes(nil, 5)

			Convey("Then the listing is empty but valid", func() {
				So(entries, ShouldNotBeNil)
				So(entries, ShouldHaveLength, 0)
			})
		})

		Convey("When records are missing a mode", func() {
			mixed := append(failuresWithModes("solder void"), model.FailureRecord{ID: "blank"})
			entries := pareto.TopModes(mixed, 5)

			Convey("Then blank modes are not counted", func() {
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Share, ShouldAlmostEqual, 1.0, 1e-12)
			})
		})
	})
}
