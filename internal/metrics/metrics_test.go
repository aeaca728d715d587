package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MetricsSuite struct {
	suite.Suite
	metrics *Metrics
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsSuite))
}

func (s *MetricsSuite) SetupTest() {
	s.metrics = New()
}

func (s *MetricsSuite) scrape() string {
	rec := httptest.NewRecorder()
	s.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	s.Require().NoError(err)
	return string(body)
}

func (s *MetricsSuite) TestSessionObserver() {
	s.metrics.RoundStarted()
	s.metrics.RoundStarted()
	s.metrics.RoundFinished(false)
	s.metrics.RoundFinished(true)
	s.metrics.SessionEnded("left")

	text := s.scrape()
	s.Contains(text, "m3duel_rounds_started_total 2")
	s.Contains(text, `m3duel_rounds_finished_total{result="decisive"} 1`)
	s.Contains(text, `m3duel_rounds_finished_total{result="tie"} 1`)
	s.Contains(text, `m3duel_sessions_ended_total{reason="left"} 1`)
}

func (s *MetricsSuite) TestLoginCounters() {
	s.metrics.LoginAccepted()
	s.metrics.LoginRejected()
	s.metrics.LoginRejected()

	text := s.scrape()
	s.Contains(text, `m3duel_logins_total{result="accepted"} 1`)
	s.Contains(text, `m3duel_logins_total{result="rejected"} 2`)
}

func (s *MetricsSuite) TestGaugesSampleSources() {
	queued := 3
	s.metrics.Observe(Sources{
		ConnectedPlayers: func() int { return 7 },
		QueuedPlayers:    func() int { return queued },
		ActiveSessions:   func() int { return 2 },
	})
	queued = 1

	text := s.scrape()
	s.Contains(text, "m3duel_connected_players 7")
	s.Contains(text, "m3duel_queued_players 1")
	s.Contains(text, "m3duel_active_sessions 2")
}
