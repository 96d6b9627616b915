package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/bncc/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(school string, d model.Date, result int) model.Record {
	return model.Record{
		School: school, GradeLevel: "5º ano", Subject: model.SubjectMathematics,
		Date: d, Skill: "EF05MA01", Result: result,
	}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()

		Convey("When records are inserted out of date order", func() {
			So(s.InsertRecord(ctx, rec("late", model.NewDate(2024, time.June, 1), 1)), ShouldBeNil)
			So(s.InsertRecord(ctx, rec("tie-1", model.NewDate(2024, time.March, 1), 2)), ShouldBeNil)
			So(s.InsertRecord(ctx, rec("tie-2", model.NewDate(2024, time.March, 1), 3)), ShouldBeNil)

			recs, err := s.ListRecords(ctx)

			Convey("Then they are listed by date with ties in insertion order", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
				So(recs[0].School, ShouldEqual, "tie-1")
				So(recs[1].School, ShouldEqual, "tie-2")
				So(recs[2].School, ShouldEqual, "late")
				So(recs[0].ID, ShouldNotBeEmpty)
			})

			Convey("Then deleting by id removes exactly that record", func() {
				So(s.DeleteRecord(ctx, recs[1].ID), ShouldBeNil)
				after, _ := s.ListRecords(ctx)
				So(after, ShouldHaveLength, 2)
				So(after[0].School, ShouldEqual, "tie-1")
			})

			Convey("Then mutating the returned slice does not touch the store", func() {
				recs[0].School = "changed"
				again, _ := s.ListRecords(ctx)
				So(again[0].School, ShouldEqual, "tie-1")
			})
		})

		Convey("When lookup names are managed", func() {
			So(s.InsertLookup(ctx, model.LookupSchools, "B"), ShouldBeNil)
			So(s.InsertLookup(ctx, model.LookupSchools, "A"), ShouldBeNil)

			Convey("Then they are listed sorted", func() {
				names, err := s.ListLookup(ctx, model.LookupSchools)
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"A", "B"})
			})

			Convey("Then a duplicate is rejected", func() {
				err := s.InsertLookup(ctx, model.LookupSchools, "A")
				So(errors.Is(err, ErrDuplicateName), ShouldBeTrue)
			})

			Convey("Then lists are independent", func() {
				names, _ := s.ListLookup(ctx, model.LookupConstructors)
				So(names, ShouldBeEmpty)
			})

			Convey("Then deletion removes the name", func() {
				So(s.DeleteLookup(ctx, model.LookupSchools, "A"), ShouldBeNil)
				names, _ := s.ListLookup(ctx, model.LookupSchools)
				So(names, ShouldResemble, []string{"B"})
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.ListRecords(cctx)

			Convey("Then a transport error is returned", func() {
				So(errors.Is(err, ErrTransport), ShouldBeTrue)
			})
		})
	})
}
