package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/bncc/internal/domain/model"
)

func entry(school string) model.Record {
	return model.Record{
		School: school, GradeLevel: "3º ano", Subject: model.SubjectPortuguese,
		Date: model.NewDate(2024, time.April, 1), Skill: "EF03LP01", Result: 50,
	}
}

func TestPendingBuffer(t *testing.T) {
	convey.Convey("Given a session", t, func() {
		s := New("s1")

		convey.Convey("When entries are added", func() {
			convey.So(s.AddPending(entry("A")), convey.ShouldEqual, 1)
			convey.So(s.AddPending(entry("B")), convey.ShouldEqual, 2)

			convey.Convey("Then Pending returns them in order as a copy", func() {
				p := s.Pending()
				convey.So(p, convey.ShouldHaveLength, 2)
				convey.So(p[0].School, convey.ShouldEqual, "A")
				p[0].School = "changed"
				convey.So(s.Pending()[0].School, convey.ShouldEqual, "A")
			})

			convey.Convey("Then Drain empties the buffer", func() {
				drained := s.Drain()
				convey.So(drained, convey.ShouldHaveLength, 2)
				convey.So(s.PendingLen(), convey.ShouldEqual, 0)
				convey.So(s.Pending(), convey.ShouldBeEmpty)
			})

			convey.Convey("Then requeued entries go ahead of new ones", func() {
				drained := s.Drain()
				s.AddPending(entry("C"))
				s.Requeue(drained[1:])
				p := s.Pending()
				convey.So(p, convey.ShouldHaveLength, 2)
				convey.So(p[0].School, convey.ShouldEqual, "B")
				convey.So(p[1].School, convey.ShouldEqual, "C")
			})

			convey.Convey("Then ClearPending removes everything", func() {
				s.ClearPending()
				convey.So(s.PendingLen(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("Then it owns a cache of its own", func() {
			other := New("s2")
			s.Cache().Set("records", 1)
			convey.So(other.Cache().Len(), convey.ShouldEqual, 0)
		})
	})
}

func TestRegistry(t *testing.T) {
	convey.Convey("Given a registry bounded to two sessions", t, func() {
		r := NewRegistry(WithMaxSessions(2))

		convey.Convey("When a session is acquired without an id", func() {
			s, created := r.Acquire("")

			convey.Convey("Then a UUID session is created", func() {
				convey.So(created, convey.ShouldBeTrue)
				_, err := uuid.Parse(s.ID())
				convey.So(err, convey.ShouldBeNil)
			})

			convey.Convey("Then acquiring it again returns the same session", func() {
				again, created := r.Acquire(s.ID())
				convey.So(created, convey.ShouldBeFalse)
				convey.So(again, convey.ShouldEqual, s)
			})
		})

		convey.Convey("When an unknown UUID is presented", func() {
			id := uuid.NewString()
			s, created := r.Acquire(id)

			convey.Convey("Then the session is recreated under that id", func() {
				convey.So(created, convey.ShouldBeTrue)
				convey.So(s.ID(), convey.ShouldEqual, id)
			})
		})

		convey.Convey("When a third session is created", func() {
			a, _ := r.Acquire("")
			b, _ := r.Acquire("")
			_, _ = r.Acquire(a.ID()) // a is now most recent
			c, _ := r.Acquire("")

			convey.Convey("Then the least recently used session is evicted", func() {
				convey.So(r.Len(), convey.ShouldEqual, 2)
				_, ok := r.Get(b.ID())
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = r.Get(a.ID())
				convey.So(ok, convey.ShouldBeTrue)
				_, ok = r.Get(c.ID())
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a session is removed", func() {
			a, _ := r.Acquire("")
			r.Remove(a.ID())
			r.Remove("unknown")

			convey.Convey("Then it is gone", func() {
				_, ok := r.Get(a.ID())
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(r.Len(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given concurrent acquisitions", t, func() {
		r := NewRegistry(WithMaxSessions(10))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, _ := r.Acquire("")
				s.AddPending(entry("A"))
			}()
		}
		wg.Wait()

		convey.So(r.Len(), convey.ShouldEqual, 10)
	})
}
