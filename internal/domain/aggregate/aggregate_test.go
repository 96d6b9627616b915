package aggregate_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/bncc/internal/domain/aggregate"
	"github.com/okian/bncc/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(school, skill, date string, result int) model.Record {
	return model.Record{
		School:     school,
		GradeLevel: "5º ano",
		Subject:    model.SubjectMathematics,
		Date:       model.MustParseDate(date),
		Skill:      skill,
		Result:     result,
	}
}

func TestFilterByDate(t *testing.T) {
	Convey("Given records spread over three months", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 40),
			rec("A", "S1", "2024-02-01", 50),
			rec("A", "S1", "2024-03-01", 60),
		}

		Convey("When filtering with an inclusive range", func() {
			out, err := aggregate.FilterByDate(records, aggregate.DateRange{
				Start: model.MustParseDate("2024-02-01"),
				End:   model.MustParseDate("2024-03-01"),
			})

			Convey("Then both bounds are kept", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(out[0].Result, ShouldEqual, 50)
				So(out[1].Result, ShouldEqual, 60)
			})
		})

		Convey("When the range is inverted", func() {
			out, err := aggregate.FilterByDate(records, aggregate.DateRange{
				Start: model.MustParseDate("2024-03-01"),
				End:   model.MustParseDate("2024-01-01"),
			})

			Convey("Then a validation error is reported and nothing is filtered", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				var verr *model.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "date_range")
			})
		})

		Convey("When asking for the data range", func() {
			r, ok := aggregate.DataRange(records)

			Convey("Then it spans the first and last date", func() {
				So(ok, ShouldBeTrue)
				So(r.Start.String(), ShouldEqual, "2024-01-01")
				So(r.End.String(), ShouldEqual, "2024-03-01")
			})
		})

		Convey("When the collection is empty", func() {
			_, ok := aggregate.DataRange(nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestWhere(t *testing.T) {
	Convey("Given records of two schools", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 40),
			rec("B", "S1", "2024-01-01", 70),
			rec("A", "S2", "2024-01-02", 80),
		}

		Convey("Then an empty criteria keeps everything", func() {
			So(len(aggregate.Where(records, aggregate.Criteria{})), ShouldEqual, 3)
		})

		Convey("Then criteria combine with AND", func() {
			out := aggregate.Where(records, aggregate.Criteria{School: "A", Skill: "S2"})
			So(len(out), ShouldEqual, 1)
			So(out[0].Result, ShouldEqual, 80)
		})

		Convey("Then distinct values are sorted", func() {
			So(aggregate.Distinct(records, model.DimSchool), ShouldResemble, []string{"A", "B"})
		})
	})
}

func TestTrend(t *testing.T) {
	Convey("Given two results of the same school and skill", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 40),
			rec("A", "S1", "2024-03-01", 60),
		}

		Convey("When computing the trend", func() {
			rows := aggregate.Trend(records, model.DimSkill)

			Convey("Then one row compares first and last", func() {
				So(len(rows), ShouldEqual, 1)
				row := rows[0]
				So(row.School, ShouldEqual, "A")
				So(row.Key, ShouldEqual, "S1")
				So(row.FirstResult, ShouldEqual, 40)
				So(row.LastResult, ShouldEqual, 60)
				So(row.PercentChange.Valid, ShouldBeTrue)
				So(row.PercentChange.Float64, ShouldEqual, 50.0)
				So(row.Records, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a group whose first result is zero", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 0),
			rec("A", "S1", "2024-03-01", 20),
			rec("B", "S1", "2024-01-01", 50),
			rec("B", "S1", "2024-03-01", 75),
		}

		Convey("When computing the trend", func() {
			rows := aggregate.Trend(records, model.DimSkill)

			Convey("Then the percent change is undefined rather than a fault", func() {
				So(len(rows), ShouldEqual, 2)
				So(rows[0].School, ShouldEqual, "A")
				So(rows[0].PercentChange.Valid, ShouldBeFalse)
			})

			Convey("And the undefined group is excluded from the mean", func() {
				mean := aggregate.MeanPercentChange(rows)
				So(mean.Valid, ShouldBeTrue)
				So(mean.Float64, ShouldEqual, 50.0)
			})

			Convey("And it encodes as null", func() {
				b, err := json.Marshal(rows[0])
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `"percent_change":null`)
			})
		})
	})

	Convey("Given records sharing a date", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 10),
			rec("A", "S1", "2024-01-01", 30),
			rec("A", "S1", "2024-02-01", 50),
			rec("A", "S1", "2024-02-01", 70),
		}

		Convey("Then first and last follow input order", func() {
			rows := aggregate.Trend(records, model.DimSkill)
			So(rows[0].FirstResult, ShouldEqual, 10)
			So(rows[0].LastResult, ShouldEqual, 70)
			So(rows[0].PercentChange.Float64, ShouldEqual, 600.0)
		})
	})

	Convey("Given records out of date order", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-03-01", 90),
			rec("A", "S1", "2024-01-01", 30),
		}

		Convey("Then first and last still follow the dates", func() {
			rows := aggregate.Trend(records, model.DimSkill)
			So(rows[0].FirstResult, ShouldEqual, 30)
			So(rows[0].LastResult, ShouldEqual, 90)
		})
	})

	Convey("Given records without a key value", t, func() {
		records := []model.Record{
			rec("A", "", "2024-01-01", 40),
			{School: "B", GradeLevel: "1º ano", Subject: model.SubjectPortuguese,
				Date: model.MustParseDate("2024-01-01"), Constructor: "Turma 1", Result: 60},
		}

		Convey("Then they are left out of the grouping", func() {
			So(len(aggregate.Trend(records, model.DimSkill)), ShouldEqual, 0)
			rows := aggregate.Trend(records, model.DimConstructor)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Key, ShouldEqual, "Turma 1")
		})

		Convey("And has-data checks only look at the grouping fields", func() {
			So(aggregate.HasData(records, model.DimSkill), ShouldBeFalse)
			So(aggregate.HasData(records, model.DimConstructor), ShouldBeTrue)
		})
	})

	Convey("Given a change that needs rounding", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 30),
			rec("A", "S1", "2024-02-01", 40),
		}

		Convey("Then it is rounded to two decimals", func() {
			rows := aggregate.Trend(records, model.DimSkill)
			So(rows[0].PercentChange.Float64, ShouldEqual, 33.33)
		})
	})

	Convey("Given a change exactly halfway between two cents", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 32),
			rec("A", "S1", "2024-02-01", 33),
		}

		Convey("Then it rounds half to even", func() {
			rows := aggregate.Trend(records, model.DimSkill)
			So(rows[0].PercentChange.Float64, ShouldEqual, 3.12)
		})
	})

	Convey("Given other halfway changes", t, func() {
		cases := []struct {
			first, last int
			want        float64
		}{
			{8, 9, 12.5},    // no rounding needed
			{16, 17, 6.25},  // exact
			{64, 65, 1.56},  // 1.5625 rounds down to even
			{32, 31, -3.12}, // negative halfway
		}
		for _, tc := range cases {
			records := []model.Record{
				rec("A", "S1", "2024-01-01", tc.first),
				rec("A", "S1", "2024-02-01", tc.last),
			}
			So(aggregate.Trend(records, model.DimSkill)[0].PercentChange.Float64, ShouldEqual, tc.want)
		}
	})
}

func TestSeriesAndVariation(t *testing.T) {
	Convey("Given school results over several dates", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 40),
			rec("A", "S2", "2024-01-01", 60),
			rec("A", "S1", "2024-02-01", 70),
			rec("B", "S1", "2024-01-01", 90),
			rec("C", "S1", "2024-01-01", 30),
			rec("C", "S1", "2024-03-01", 20),
		}

		Convey("When building school series", func() {
			series := aggregate.SchoolSeries(records)

			Convey("Then each date holds the mean of its records", func() {
				So(len(series), ShouldEqual, 3)
				So(series[0].Label, ShouldEqual, "A")
				So(len(series[0].Points), ShouldEqual, 2)
				So(series[0].Points[0].Mean, ShouldEqual, 50.0)
				So(series[0].Points[0].Count, ShouldEqual, 2)
				So(series[0].Points[1].Mean, ShouldEqual, 70.0)
			})

			Convey("And a school with a single date is excluded from the variation", func() {
				rows := aggregate.Variation(series)
				So(len(rows), ShouldEqual, 2)
				labels := []string{rows[0].Label, rows[1].Label}
				So(labels, ShouldResemble, []string{"A", "C"})
				So(rows[0].Delta, ShouldEqual, 20.0)
				So(rows[0].PercentChange.Float64, ShouldEqual, 40.0)
			})

			Convey("And the variation ranks gains and losses", func() {
				rows := aggregate.Variation(series)
				top := aggregate.RankVariation(rows, aggregate.Top)
				bottom := aggregate.RankVariation(rows, aggregate.Bottom)
				So(top[0].Label, ShouldEqual, "A")
				So(bottom[0].Label, ShouldEqual, "C")
			})
		})

		Convey("When the same school is averaged", func() {
			means := aggregate.GroupedMeans(records, model.DimSchool)

			Convey("Then the single-date school is still present", func() {
				So(len(means), ShouldEqual, 3)
				So(means[1].Label, ShouldEqual, "B")
				So(means[1].Mean, ShouldEqual, 90.0)
			})
		})

		Convey("When following one selection", func() {
			points := aggregate.Evolution(records, aggregate.Criteria{School: "A", Skill: "S1"})

			Convey("Then only matching records are charted", func() {
				So(len(points), ShouldEqual, 2)
				So(points[0].Mean, ShouldEqual, 40.0)
				So(points[1].Mean, ShouldEqual, 70.0)
			})
		})
	})
}

func TestGroupedMeansAndRanking(t *testing.T) {
	Convey("Given many skills", t, func() {
		var records []model.Record
		for i := 0; i < 15; i++ {
			records = append(records, rec("A", fmt.Sprintf("S%02d", i), "2024-01-01", 30+i*5))
		}

		Convey("When there are no records", func() {
			So(len(aggregate.GroupedMeans(nil, model.DimSkill)), ShouldEqual, 0)
		})

		Convey("When ranking the top view", func() {
			means := aggregate.GroupedMeans(records, model.DimSkill)
			top := aggregate.Rank(means, aggregate.Top)

			Convey("Then at most ten groups at or above 50 come back, best first", func() {
				So(len(top), ShouldBeLessThanOrEqualTo, aggregate.MaxRanked)
				for i, g := range top {
					So(g.Mean, ShouldBeGreaterThanOrEqualTo, aggregate.RankThreshold)
					if i > 0 {
						So(g.Mean, ShouldBeLessThanOrEqualTo, top[i-1].Mean)
					}
				}
				So(top[0].Mean, ShouldEqual, 100.0)
			})
		})

		Convey("When ranking the needs-improvement view", func() {
			means := aggregate.GroupedMeans(records, model.DimSkill)
			bottom := aggregate.Rank(means, aggregate.Bottom)

			Convey("Then only groups below 50 come back, worst first", func() {
				So(len(bottom), ShouldEqual, 4)
				for i, g := range bottom {
					So(g.Mean, ShouldBeLessThan, aggregate.RankThreshold)
					if i > 0 {
						So(g.Mean, ShouldBeGreaterThanOrEqualTo, bottom[i-1].Mean)
					}
				}
			})
		})

		Convey("When a limit above the cap is requested", func() {
			means := aggregate.GroupedMeans(records, model.DimSkill)
			top := aggregate.Rank(means, aggregate.Top, aggregate.WithLimit(50), aggregate.WithThreshold(0))
			So(len(top), ShouldEqual, aggregate.MaxRanked)
		})

		Convey("When two groups tie", func() {
			means := []aggregate.GroupMean{
				{Label: "first", Mean: 80},
				{Label: "second", Mean: 80},
				{Label: "third", Mean: 90},
			}
			top := aggregate.Rank(means, aggregate.Top)

			Convey("Then input order breaks the tie", func() {
				So(top[0].Label, ShouldEqual, "third")
				So(top[1].Label, ShouldEqual, "first")
				So(top[2].Label, ShouldEqual, "second")
			})
		})
	})
}

func TestCrossTabulate(t *testing.T) {
	Convey("Given a sparse skill by grade matrix", t, func() {
		a := rec("A", "S1", "2024-01-01", 40)
		b := rec("A", "S1", "2024-01-02", 60)
		c := rec("A", "S2", "2024-01-01", 80)
		c.GradeLevel = "6º ano"
		records := []model.Record{a, b, c}

		Convey("When pivoting", func() {
			ct := aggregate.CrossTabulate(records, model.DimSkill, model.DimGrade)

			Convey("Then the grid is dense over sorted labels", func() {
				So(ct.Rows, ShouldResemble, []string{"S1", "S2"})
				So(ct.Cols, ShouldResemble, []string{"5º ano", "6º ano"})
				So(len(ct.Cells), ShouldEqual, 2)
				So(len(ct.Cells[0]), ShouldEqual, 2)
			})

			Convey("And present pairs carry their mean", func() {
				So(ct.At("S1", "5º ano"), ShouldResemble, aggregate.Some(50))
				So(ct.At("S2", "6º ano"), ShouldResemble, aggregate.Some(80))
			})

			Convey("And absent pairs stay undefined instead of zero", func() {
				So(ct.At("S1", "6º ano").Valid, ShouldBeFalse)
				So(ct.At("S2", "5º ano").Valid, ShouldBeFalse)
			})
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given a mixed set of trends", t, func() {
		records := []model.Record{
			rec("A", "S1", "2024-01-01", 40),
			rec("A", "S1", "2024-02-01", 60),
			rec("A", "S2", "2024-01-01", 0),
			rec("A", "S2", "2024-02-01", 20),
			rec("B", "S1", "2024-01-01", 80),
			rec("B", "S1", "2024-02-01", 60),
		}
		trend := aggregate.Trend(records, model.DimSkill)
		s := aggregate.Summarize(records, trend)

		Convey("Then the KPIs count each outcome", func() {
			So(s.Records, ShouldEqual, 6)
			So(s.Schools, ShouldEqual, 2)
			So(s.Groups, ShouldEqual, 3)
			So(s.Improved, ShouldEqual, 1)
			So(s.Declined, ShouldEqual, 1)
			So(s.Undefined, ShouldEqual, 1)
			So(s.Mean.Float64, ShouldAlmostEqual, 260.0/6.0)
			So(s.MeanPercentChange.Float64, ShouldEqual, 12.5)
			So(s.Range.End.String(), ShouldEqual, "2024-02-01")
		})
	})

	Convey("Given no records", t, func() {
		s := aggregate.Summarize(nil, nil)

		Convey("Then the means are undefined, not zero", func() {
			So(s.Mean.Valid, ShouldBeFalse)
			So(s.MeanPercentChange.Valid, ShouldBeFalse)
		})
	})
}
