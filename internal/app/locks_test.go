package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestKeyedLocks(t *testing.T) {
	convey.Convey("Given a zero keyedLocks", t, func() {
		var k keyedLocks

		convey.Convey("When many goroutines lock the same key", func() {
			var (
				wg      sync.WaitGroup
				inside  atomic.Int32
				overlap atomic.Int32
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock := k.lock("digest")
					if inside.Add(1) > 1 {
						overlap.Add(1)
					}
					inside.Add(-1)
					unlock()
				}()
			}
			wg.Wait()

			convey.Convey("Then no two of them should hold it together and nothing should be left behind", func() {
				convey.So(overlap.Load(), convey.ShouldEqual, 0)
				convey.So(k.size(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When two different keys are locked", func() {
			unlockA := k.lock("a")
			unlockB := k.lock("b")

			convey.Convey("Then both should be held at once", func() {
				convey.So(k.size(), convey.ShouldEqual, 2)
				unlockA()
				unlockB()
				convey.So(k.size(), convey.ShouldEqual, 0)
			})
		})
	})
}
