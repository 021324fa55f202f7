package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.searchesStarted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("lookup"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names carry the namespace and subsystem", func() {
				manager.playerFocus.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_lookup_player_focus_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestSearchMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording search lifecycle metrics", func() {
			before := testutil.ToFloat64(globalManager.searchesStale)
			RecordSearchStarted()
			RecordSearchStale()
			RecordSearchCommitted(OutcomeSuccess)
			RecordSearchCommitted(OutcomeError)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.searchesStale), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.searchesCommitted.WithLabelValues(OutcomeError)), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateSessionsActive(7)
			UpdateDirectoryPlayers(42)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.directoryPlayers), ShouldEqual, 42)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/sessions", "POST", "201")
				RecordHTTPRequestDuration("/sessions", "POST", "201", 3)
				RecordErrorByComponent("search", "fetch_failed")
				RecordErrorByType("fetch_failed", "medium")
				RecordErrorByEndpoint("sessions", "PUT", "not_found")
				AddWebsocketClients(1)
				AddWebsocketClients(-1)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
				RecordSearchLatency(12)
				RecordDirectoryQueryLatency(3)
				RecordMatchDataEmpty()
				RecordStateTransition("loading")
			}, ShouldNotPanic)
		})
	})
}
