package db_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "uxpulse/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbpkg.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func testIssue(key string) *dbpkg.Issue {
	screen := "Checkout"
	return &dbpkg.Issue{
		Key:        key,
		Title:      "High API error rate on Checkout (20.0%)",
		Category:   "reliability",
		Impact:     "high",
		Confidence: 0.65,
		Screen:     &screen,
		Evidence: datatypes.JSONMap{
			"window_hours": 24, "error_rate": 0.2, "errors": 20, "total_events": 100,
		},
		Recommendation: datatypes.JSONMap{"hypothesis": "API failures correlate with checkout abandonment."},
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventStore(t *testing.T) {
	Convey("Given an empty event store", t, func() {
		gdb := openTestDB(t)
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		screen := "Checkout"

		Convey("Inserting a batch reports the stored count", func() {
			n, err := dbpkg.InsertEventBatch(gdb, []dbpkg.Event{
				{EventID: "e1", Name: "screen_view", TS: now, Screen: &screen, Props: datatypes.JSONMap{}},
				{EventID: "e2", Name: "api_error", TS: now, Screen: &screen, Props: datatypes.JSONMap{"endpoint": "/pay"}},
			})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)

			var count int64
			So(gdb.Model(&dbpkg.Event{}).Count(&count).Error, ShouldBeNil)
			So(count, ShouldEqual, 2)
		})

		Convey("An empty batch is a no-op", func() {
			n, err := dbpkg.InsertEventBatch(gdb, nil)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("Window queries respect the inclusive lower bound and screen filter", func() {
			other := "Home"
			_, err := dbpkg.InsertEventBatch(gdb, []dbpkg.Event{
				{EventID: "old", Name: "screen_view", TS: now.Add(-25 * time.Hour), Screen: &screen, Props: datatypes.JSONMap{}},
				{EventID: "edge", Name: "screen_view", TS: now.Add(-24 * time.Hour), Screen: &screen, Props: datatypes.JSONMap{}},
				{EventID: "fresh", Name: "api_ok", TS: now, Screen: &screen, Props: datatypes.JSONMap{}},
				{EventID: "elsewhere", Name: "api_ok", TS: now, Screen: &other, Props: datatypes.JSONMap{}},
				{EventID: "unlabeled", Name: "api_ok", TS: now, Props: datatypes.JSONMap{}},
			})
			So(err, ShouldBeNil)

			events, err := dbpkg.EventsInWindow(gdb, now.Add(-24*time.Hour), "")
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 4) // "old" excluded

			events, err = dbpkg.EventsInWindow(gdb, now.Add(-24*time.Hour), "Checkout")
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2) // screen filter skips Home and unlabeled
		})

		Convey("Props round-trip through the JSON column", func() {
			_, err := dbpkg.InsertEventBatch(gdb, []dbpkg.Event{
				{EventID: "e1", Name: "api_error", TS: now, Screen: &screen,
					Props: datatypes.JSONMap{"api_ms": 123.0, "endpoint": "/pay"}},
			})
			So(err, ShouldBeNil)

			events, err := dbpkg.EventsInWindow(gdb, now.Add(-time.Hour), "")
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
			So(events[0].Props["endpoint"], ShouldEqual, "/pay")
		})
	})
}

func TestIssueStore(t *testing.T) {
	Convey("Given an issue store", t, func() {
		gdb := openTestDB(t)

		Convey("Upsert inserts a new key", func() {
			So(dbpkg.UpsertIssue(gdb, testIssue("reliability:Checkout:24h")), ShouldBeNil)

			issue, err := dbpkg.IssueByKey(gdb, "reliability:Checkout:24h")
			So(err, ShouldBeNil)
			So(issue.Impact, ShouldEqual, "high")
		})

		Convey("Upsert replaces every non-key field on conflict", func() {
			So(dbpkg.UpsertIssue(gdb, testIssue("reliability:Checkout:24h")), ShouldBeNil)

			updated := testIssue("reliability:Checkout:24h")
			updated.Title = "High API error rate on Checkout (5.0%)"
			updated.Impact = "low"
			updated.Evidence = datatypes.JSONMap{"window_hours": 24, "error_rate": 0.05, "errors": 5, "total_events": 100}
			So(dbpkg.UpsertIssue(gdb, updated), ShouldBeNil)

			var count int64
			So(gdb.Model(&dbpkg.Issue{}).Count(&count).Error, ShouldBeNil)
			So(count, ShouldEqual, 1)

			issue, err := dbpkg.IssueByKey(gdb, "reliability:Checkout:24h")
			So(err, ShouldBeNil)
			So(issue.Impact, ShouldEqual, "low")
			So(issue.Title, ShouldContainSubstring, "5.0%")
		})

		Convey("Upsert is idempotent for identical values", func() {
			So(dbpkg.UpsertIssue(gdb, testIssue("llm:Checkout:24h:abc123def456")), ShouldBeNil)
			before, err := dbpkg.IssueByKey(gdb, "llm:Checkout:24h:abc123def456")
			So(err, ShouldBeNil)

			So(dbpkg.UpsertIssue(gdb, testIssue("llm:Checkout:24h:abc123def456")), ShouldBeNil)
			after, err := dbpkg.IssueByKey(gdb, "llm:Checkout:24h:abc123def456")
			So(err, ShouldBeNil)

			var count int64
			So(gdb.Model(&dbpkg.Issue{}).Count(&count).Error, ShouldBeNil)
			So(count, ShouldEqual, 1)
			So(after.Title, ShouldEqual, before.Title)
			So(after.Impact, ShouldEqual, before.Impact)
			So(after.CreatedAt.Equal(before.CreatedAt), ShouldBeTrue)
		})

		Convey("List returns newest first and honors the limit", func() {
			for i, key := range []string{"k1", "k2", "k3"} {
				issue := testIssue(key)
				issue.CreatedAt = issue.CreatedAt.Add(time.Duration(i) * time.Hour)
				So(dbpkg.UpsertIssue(gdb, issue), ShouldBeNil)
			}

			issues, err := dbpkg.ListIssues(gdb, 2)
			So(err, ShouldBeNil)
			So(issues, ShouldHaveLength, 2)
			So(issues[0].Key, ShouldEqual, "k3")
			So(issues[1].Key, ShouldEqual, "k2")
		})

		Convey("Unknown keys are a not-found error", func() {
			_, err := dbpkg.IssueByKey(gdb, "nope")
			So(err, ShouldEqual, gorm.ErrRecordNotFound)
		})
	})
}

func TestScreenLinks(t *testing.T) {
	Convey("Given a screen link store", t, func() {
		gdb := openTestDB(t)

		Convey("Linking twice keeps one row with the latest source", func() {
			So(dbpkg.LinkScreen(gdb, "Checkout", "screens/checkout_v1.tsx"), ShouldBeNil)
			So(dbpkg.LinkScreen(gdb, "Checkout", "screens/checkout_v2.tsx"), ShouldBeNil)

			var links []dbpkg.ScreenLink
			So(gdb.Find(&links).Error, ShouldBeNil)
			So(links, ShouldHaveLength, 1)
			So(links[0].Source, ShouldEqual, "screens/checkout_v2.tsx")
		})
	})
}

func TestRetention(t *testing.T) {
	Convey("Given events on both sides of the retention cutoff", t, func() {
		gdb := openTestDB(t)
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		screen := "Checkout"

		_, err := dbpkg.InsertEventBatch(gdb, []dbpkg.Event{
			{EventID: "ancient", Name: "api_ok", TS: now.AddDate(0, 0, -31), Screen: &screen, Props: datatypes.JSONMap{}},
			{EventID: "edge", Name: "api_ok", TS: now.AddDate(0, 0, -30), Screen: &screen, Props: datatypes.JSONMap{}},
			{EventID: "fresh", Name: "api_ok", TS: now, Screen: &screen, Props: datatypes.JSONMap{}},
		})
		So(err, ShouldBeNil)

		Convey("Pruning removes only strictly older rows", func() {
			n, err := dbpkg.PruneEventsBefore(gdb, now.AddDate(0, 0, -30))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			var ids []string
			So(gdb.Model(&dbpkg.Event{}).Order("ts").Pluck("event_id", &ids).Error, ShouldBeNil)
			So(ids, ShouldResemble, []string{"edge", "fresh"})
		})

		Convey("Pruning an already clean store deletes nothing", func() {
			n, err := dbpkg.PruneEventsBefore(gdb, now.AddDate(0, 0, -40))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestRecentEvents(t *testing.T) {
	Convey("Given a store with events across screens", t, func() {
		gdb := openTestDB(t)
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		checkout, home := "Checkout", "Home"

		_, err := dbpkg.InsertEventBatch(gdb, []dbpkg.Event{
			{EventID: "a", Name: "screen_view", TS: now.Add(-3 * time.Hour), Screen: &checkout, Props: datatypes.JSONMap{}},
			{EventID: "b", Name: "api_ok", TS: now.Add(-2 * time.Hour), Screen: &home, Props: datatypes.JSONMap{}},
			{EventID: "c", Name: "api_error", TS: now.Add(-time.Hour), Screen: &checkout, Props: datatypes.JSONMap{}},
		})
		So(err, ShouldBeNil)

		Convey("The listing is newest first and honors the limit", func() {
			events, err := dbpkg.RecentEvents(gdb, 2, "")
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
			So(events[0].EventID, ShouldEqual, "c")
			So(events[1].EventID, ShouldEqual, "b")
		})

		Convey("The screen filter applies before the limit", func() {
			events, err := dbpkg.RecentEvents(gdb, 10, "Checkout")
			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
			So(events[0].EventID, ShouldEqual, "c")
			So(events[1].EventID, ShouldEqual, "a")
		})
	})
}
