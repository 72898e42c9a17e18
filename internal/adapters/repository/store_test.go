package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tangentlab/nabla/internal/adapters/repository"
	"github.com/tangentlab/nabla/internal/domain/diff"
	"github.com/tangentlab/nabla/internal/domain/model"
)

func sampleResult(id string, done time.Time) model.Result {
	return model.Result{
		TaskID:     id,
		Mode:       diff.ModeForward,
		Primal:     []float64{11},
		Jacobian:   [][]float64{{4}},
		Done:       done,
		EvalMicros: 42,
	}
}

func runStoreContract(store repository.Store) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	Convey("When the store is empty", func() {
		Convey("Then Get returns ErrNotFound", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then Count is zero", func() {
			So(store.Count(ctx), ShouldEqual, 0)
		})
	})

	Convey("When storing and reading back a result", func() {
		So(store.Put(ctx, sampleResult("t1", base)), ShouldBeNil)

		got, err := store.Get(ctx, "t1")
		So(err, ShouldBeNil)

		Convey("Then the fields round-trip", func() {
			So(got.TaskID, ShouldEqual, "t1")
			So(got.Mode, ShouldEqual, diff.ModeForward)
			So(got.Primal, ShouldResemble, []float64{11})
			So(got.Jacobian, ShouldResemble, [][]float64{{4}})
			So(got.EvalMicros, ShouldEqual, 42)
			So(got.Failed(), ShouldBeFalse)
		})
	})

	Convey("When storing a failed result", func() {
		failed := model.Result{TaskID: "t-err", Mode: diff.ModeReverse, Err: "argument outside function domain", Done: base}
		So(store.Put(ctx, failed), ShouldBeNil)

		got, err := store.Get(ctx, "t-err")
		So(err, ShouldBeNil)

		Convey("Then it reads back as failed with empty output", func() {
			So(got.Failed(), ShouldBeTrue)
			So(got.Primal, ShouldBeNil)
			So(got.Jacobian, ShouldBeNil)
		})
	})

	Convey("When overwriting a result for the same task", func() {
		So(store.Put(ctx, sampleResult("t2", base)), ShouldBeNil)
		updated := sampleResult("t2", base.Add(time.Minute))
		updated.Primal = []float64{99}
		So(store.Put(ctx, updated), ShouldBeNil)

		got, err := store.Get(ctx, "t2")
		So(err, ShouldBeNil)

		Convey("Then the latest write wins", func() {
			So(got.Primal, ShouldResemble, []float64{99})
		})
	})

	Convey("When listing recent results", func() {
		for i := 0; i < 5; i++ {
			r := sampleResult("recent-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
			So(store.Put(ctx, r), ShouldBeNil)
		}

		Convey("Then they come back newest first, capped at the limit", func() {
			got, err := store.Recent(ctx, 3)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].TaskID, ShouldEqual, "recent-e")
			So(got[1].TaskID, ShouldEqual, "recent-d")
			So(got[2].TaskID, ShouldEqual, "recent-c")
		})

		Convey("Then a non-positive limit is rejected", func() {
			_, err := store.Recent(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})
	})
}

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory result store", t, func() {
		store := repository.NewMemStore()
		defer store.Close()
		runStoreContract(store)
	})
}

func TestSQLiteStore(t *testing.T) {
	// Each Convey rerun needs a fresh database file, or writes from one
	// assertion path leak into the next.
	var n int
	Convey("Given a SQLite result store", t, func() {
		n++
		path := filepath.Join(t.TempDir(), fmt.Sprintf("nabla-%d.db", n))
		store, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		defer store.Close()
		runStoreContract(store)
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	Convey("Given a SQLite store that was closed", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nabla.db")

		store, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		done := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		So(store.Put(ctx, sampleResult("persisted", done)), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When reopening the same file", func() {
			reopened, err := repository.NewSQLiteStore(path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then previously stored results are still there", func() {
				got, err := reopened.Get(ctx, "persisted")
				So(err, ShouldBeNil)
				So(got.Primal, ShouldResemble, []float64{11})
				So(reopened.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}
