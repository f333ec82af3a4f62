package status

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/stretchr/testify/suite"
)

type StatusTestSuite struct {
	suite.Suite
	tempDir  string
	reporter *Reporter
}

func TestStatusSuite(t *testing.T) {
	suite.Run(t, new(StatusTestSuite))
}

func (s *StatusTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "status_test_*")
	s.Require().NoError(err)
	s.tempDir = tempDir
	s.reporter = NewReporter(filepath.Join(tempDir, "service_status.json"), logger.NewNopLogger())
}

func (s *StatusTestSuite) TearDownTest() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

func (s *StatusTestSuite) TestReadMissing() {
	s.True(s.reporter.Read().IsNone())
}

func (s *StatusTestSuite) TestReadCorrupt() {
	s.Require().NoError(os.WriteFile(s.reporter.Path(), []byte(`{"running":`), 0644))
	s.True(s.reporter.Read().IsNone())
}

func (s *StatusTestSuite) TestPublishThenRead() {
	start := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	poll := start.Add(time.Minute)
	want := ServiceStatus{
		Running:      true,
		PID:          4242,
		StartTime:    start,
		LastPollTime: &poll,
		ProgressPct:  12.5,
		ErrorCount:   2,
		Trading:      true,
		RunID:        "run",
		Version:      "1.0.0",
		State:        PhaseRunningPoll,
		TrackedCount: 3,
		UpdatedAt:    poll,
	}

	s.Require().NoError(s.reporter.Publish(want))

	got := s.reporter.Read()
	s.Require().True(got.IsSome())
	s.True(want.StartTime.Equal(got.Unwrap().StartTime))
	s.True(want.LastPollTime.Equal(*got.Unwrap().LastPollTime))
	s.Equal(want.ErrorCount, got.Unwrap().ErrorCount)
	s.Equal(PhaseRunningPoll, got.Unwrap().State)
}

func (s *StatusTestSuite) TestPublishWithoutLastPollWritesNull() {
	s.Require().NoError(s.reporter.Publish(ServiceStatus{Running: true}))

	data, err := os.ReadFile(s.reporter.Path())
	s.Require().NoError(err)
	s.Contains(string(data), `"last_poll_time": null`)
}

func (s *StatusTestSuite) TestDescribe() {
	s.Equal("stopped", ServiceStatus{Running: false}.Describe())
	s.Equal("stopped", ServiceStatus{Running: true, StopRequested: true}.Describe())
	s.Equal("paused", ServiceStatus{Running: true, Paused: true}.Describe())
	s.Equal("running", ServiceStatus{Running: true}.Describe())
}

func (s *StatusTestSuite) TestUptime() {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	st := ServiceStatus{StartTime: start}

	s.Equal(90*time.Minute, st.Uptime(start.Add(90*time.Minute)))
	s.Equal(time.Duration(0), st.Uptime(start.Add(-time.Minute)))
	s.Equal(time.Duration(0), ServiceStatus{}.Uptime(start))
}

func (s *StatusTestSuite) TestProgressPct() {
	start := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		now      time.Time
		interval time.Duration
		expected float64
	}{
		{"just started", start, time.Minute, 0},
		{"half way", start.Add(30 * time.Second), time.Minute, 50},
		{"overrun clamps to 100", start.Add(5 * time.Minute), time.Minute, 100},
		{"clock skew clamps to 0", start.Add(-time.Second), time.Minute, 0},
		{"zero interval", start.Add(time.Second), 0, 0},
		{"rounded", start.Add(time.Second), 3 * time.Second, 33.33},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, ProgressPct(start, tc.now, tc.interval))
		})
	}

	s.Equal(0.0, ProgressPct(time.Time{}, start, time.Minute))
}
