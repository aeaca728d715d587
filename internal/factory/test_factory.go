package factory

import (
	"time"

	"github.com/mcoot/match3duel/internal/dependencies/mocks"
	"github.com/mcoot/match3duel/internal/services/session"
	"github.com/mcoot/match3duel/internal/storage/memory"
	"github.com/mcoot/match3duel/internal/testutil"
	"github.com/mcoot/match3duel/internal/web/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Rounds last three ticks of the mock clock.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	sessionCfg := session.Config{Duration: 3, TickInterval: time.Second, RatingTimeout: time.Second}

	app := newWithDependencies(store, mockClock, mockRandom, sessionCfg, ws.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
