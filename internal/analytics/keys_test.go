package analytics_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"uxpulse/internal/analytics"
)

func baseSnapshot() analytics.Snapshot {
	p95 := 480.0
	return analytics.Snapshot{
		WindowHours:   24,
		Screen:        "Checkout",
		TotalEvents:   120,
		APIErrorCount: 18,
		APIErrorRate:  0.15,
		P95APIMs:      &p95,
	}
}

func TestRuleIssueKey(t *testing.T) {
	Convey("The rule key depends only on screen and window length", t, func() {
		So(analytics.RuleIssueKey("Checkout", 24), ShouldEqual, "reliability:Checkout:24h")
		So(analytics.RuleIssueKey("Checkout", 24), ShouldEqual, analytics.RuleIssueKey("Checkout", 24))
		So(analytics.RuleIssueKey("Checkout", 48), ShouldNotEqual, analytics.RuleIssueKey("Checkout", 24))
		So(analytics.RuleIssueKey("Home", 24), ShouldNotEqual, analytics.RuleIssueKey("Checkout", 24))
	})
}

func TestAssistIssueKey(t *testing.T) {
	Convey("Given a snapshot", t, func() {
		key := analytics.AssistIssueKey(baseSnapshot())

		Convey("Then the key is stable for identical evidence", func() {
			So(analytics.AssistIssueKey(baseSnapshot()), ShouldEqual, key)
			So(key, ShouldStartWith, "llm:Checkout:24h:")
			So(key, ShouldHaveLength, len("llm:Checkout:24h:")+12)
		})

		Convey("Then each evidence field changes the key", func() {
			s := baseSnapshot()
			s.TotalEvents = 121
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			s.APIErrorCount = 19
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			s.APIErrorRate = 0.1501
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			p95 := 481.0
			s.P95APIMs = &p95
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			s.P95APIMs = nil
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			s.WindowHours = 48
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)

			s = baseSnapshot()
			s.Screen = "Home"
			So(analytics.AssistIssueKey(s), ShouldNotEqual, key)
		})

		Convey("Then fields outside the evidence set do not change the key", func() {
			s := baseSnapshot()
			s.APIOKCount = 99
			s.ScreenViewCount = 7
			s.AddToCartCount = 3
			src := "screens/checkout.tsx"
			s.Source = &src
			s.TopEndpoints = []analytics.EndpointStat{{Endpoint: "/pay", APIErrors: 5}}
			So(analytics.AssistIssueKey(s), ShouldEqual, key)
		})
	})
}
