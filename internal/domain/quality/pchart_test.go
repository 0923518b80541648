package quality_test

import (
	"errors"
	"testing"
	"time"

	quality "github.com/kuiperworks/kerf/internal/domain/quality"
	. "github.com/smartystreets/goconvey/convey"
)

func TestControlLimits(t *testing.T) {
	Convey("Given an ordered series of lot samples", t, func() {
		Convey("When a single lot of 1000 units has 10 defects", func() {
			samples := []quality.LotSample{
				{
					LotID:          "LOT-2401",
					InspectionDate: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
					LotSize:        1000,
					DefectCount:    10,
				},
			}

			Convey("Then the limits follow the three sigma formula", func() {
				result, err := quality.ControlLimits(samples)
				So(err, ShouldBeNil)
				So(result.CenterLine, ShouldEqual, 0.01)
				So(result.MeanLotSize, ShouldEqual, 1000.0)
				So(result.UCL, ShouldAlmostEqual, 0.019439279633531364, 1e-12) // 0.01 + 3*sqrt(0.01*0.99/1000)
				So(result.LCL, ShouldAlmostEqual, 0.000560720366468636, 1e-12) // 0.01 - 3*sqrt(0.01*0.99/1000)
				So(result.Flags, ShouldHaveLength, 1)
				So(result.Flags[0], ShouldBeFalse)
			})
		})

		Convey("When a stable series contains one excursion lot", func() {
			samples := make([]quality.LotSample, 0, 10)
			for i := 0; i < 9; i++ {
				samples = append(samples, quality.LotSample{LotSize: 200, DefectCount: 2})
			}
			samples = append(samples, quality.LotSample{LotSize: 200, DefectCount: 30})

			Convey("Then only the excursion lot is flagged", func() {
				result, err := quality.ControlLimits(samples)
				So(err, ShouldBeNil)
				So(result.CenterLine, ShouldAlmostEqual, 0.024) // 48 defects / 2000 inspected
				So(result.LCL, ShouldEqual, 0.0)
				So(result.Flags, ShouldHaveLength, 10)
				for i := 0; i < 9; i++ {
					So(result.Flags[i], ShouldBeFalse)
				}
				So(result.Flags[9], ShouldBeTrue)
			})

			Convey("And the limits bracket the center line", func() {
				result, err := quality.ControlLimits(samples)
				So(err, ShouldBeNil)
				So(result.LCL, ShouldBeLessThanOrEqualTo, result.CenterLine)
				So(result.CenterLine, ShouldBeLessThanOrEqualTo, result.UCL)
			})
		})

		Convey("When every lot is defect free", func() {
			samples := []quality.LotSample{
				{LotSize: 500, DefectCount: 0},
				{LotSize: 500, DefectCount: 0},
				{LotSize: 500, DefectCount: 0},
			}

			Convey("Then the limits collapse onto zero", func() {
				result, err := quality.ControlLimits(samples)
				So(err, ShouldBeNil)
				So(result.CenterLine, ShouldEqual, 0.0)
				So(result.UCL, ShouldEqual, 0.0)
				So(result.LCL, ShouldEqual, 0.0)
				for _, flagged := range result.Flags {
					So(flagged, ShouldBeFalse)
				}
			})
		})

		Convey("When every unit in every lot is defective", func() {
			samples := []quality.LotSample{
				{LotSize: 10, DefectCount: 10},
				{LotSize: 10, DefectCount: 10},
			}

			Convey("Then the limits collapse onto one", func() {
				result, err := quality.ControlLimits(samples)
				So(err, ShouldBeNil)
				So(result.CenterLine, ShouldEqual, 1.0)
				So(result.UCL, ShouldEqual, 1.0)
				So(result.LCL, ShouldEqual, 1.0)
				So(result.Flags[0], ShouldBeFalse)
				So(result.Flags[1], ShouldBeFalse)
			})
		})

		Convey("When the sample sequence is empty", func() {
			result, err := quality.ControlLimits(nil)

			Convey("Then it should reject the input", func() {
				So(errors.Is(err, quality.ErrInvalidInput), ShouldBeTrue)
				So(result.Flags, ShouldBeNil)
			})
		})

		Convey("When a lot size is not positive", func() {
			samples := []quality.LotSample{
				{LotSize: 100, DefectCount: 1},
				{LotSize: 0, DefectCount: 0},
			}

			Convey("Then it should reject the input", func() {
				_, err := quality.ControlLimits(samples)
				So(errors.Is(err, quality.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a defect count is negative", func() {
			samples := []quality.LotSample{
				{LotSize: 100, DefectCount: -1},
			}

			Convey("Then it should reject the input", func() {
				_, err := quality.ControlLimits(samples)
				So(errors.Is(err, quality.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a defect count exceeds the lot size", func() {
			samples := []quality.LotSample{
				{LotSize: 100, DefectCount: 101},
			}

			Convey("Then it should reject the input", func() {
				_, err := quality.ControlLimits(samples)
				So(errors.Is(err, quality.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestLotSampleProportion(t *testing.T) {
	Convey("Given a lot sample", t, func() {
		sample := quality.LotSample{LotSize: 400, DefectCount: 6}

		Convey("Then the proportion defective is defects over size", func() {
			So(sample.Proportion(), ShouldEqual, 0.015)
		})
	})
}
