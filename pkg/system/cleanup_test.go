//go:build unit || !integration

package system

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/logger"
)

type SystemCleanupSuite struct {
	suite.Suite
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestSystemCleanupSuite(t *testing.T) {
	suite.Run(t, new(SystemCleanupSuite))
}

// Before each test
func (suite *SystemCleanupSuite) SetupTest() {
	logger.ConfigureTestLogging(suite.T())
}

func (suite *SystemCleanupSuite) TestCleanupManager() {
	var clean atomic.Int32

	cm := NewCleanupManager()
	for i := 0; i < 3; i++ {
		cm.RegisterCallback(func() error {
			clean.Add(1)
			return nil
		})
	}

	require.NoError(suite.T(), cm.Cleanup(context.Background()))
	require.Equal(suite.T(), int32(3), clean.Load(), "cleanup handler failed to run registered functions")
}

func (suite *SystemCleanupSuite) TestCleanupWithoutCallbacks() {
	cm := NewCleanupManager()
	suite.NoError(cm.Cleanup(context.Background()))
}

func (suite *SystemCleanupSuite) TestCleanupCollectsErrors() {
	cm := NewCleanupManager()
	cm.RegisterCallback(func() error { return errors.New("flush failed") })
	cm.RegisterCallback(func() error { return context.Canceled })
	cm.RegisterCallbackWithContext(func(ctx context.Context) error { return ctx.Err() })

	err := cm.Cleanup(context.Background())
	suite.Require().Error(err)
	suite.Equal("flush failed", err.Error())
}

func (suite *SystemCleanupSuite) TestCleanupTimesOut() {
	mock := clock.NewMock()
	cm := NewCleanupManager(WithCleanupTimeout(time.Second), WithCleanupClock(mock))

	release := make(chan struct{})
	defer close(release)
	cm.RegisterCallback(func() error { return nil })
	cm.RegisterCallback(func() error {
		<-release
		return nil
	})

	result := make(chan error, 1)
	go func() { result <- cm.Cleanup(context.Background()) }()

	// keep advancing until the cleanup deadline has been armed and fired
	suite.Eventually(func() bool {
		mock.Add(time.Second)
		select {
		case err := <-result:
			suite.True(bacerrors.HasCode(err, bacerrors.TimedOut), "unexpected error: %v", err)
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func (suite *SystemCleanupSuite) TestCleanupOnlyOnce() {
	var calls atomic.Int32
	cm := NewCleanupManager()
	cm.RegisterCallback(func() error {
		calls.Add(1)
		return nil
	})

	suite.NoError(cm.Cleanup(context.Background()))
	suite.NoError(cm.Cleanup(context.Background()))
	cm.RegisterCallback(func() error {
		calls.Add(1)
		return nil
	})
	suite.Equal(int32(1), calls.Load())
}

func (suite *SystemCleanupSuite) TestCleanupWaitsWhenContextCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var flushed atomic.Bool
	var sawCancellation atomic.Bool
	cm := NewCleanupManager()
	cm.RegisterCallbackWithContext(func(ctx context.Context) error {
		sawCancellation.Store(ctx.Err() != nil)
		time.Sleep(50 * time.Millisecond)
		flushed.Store(true)
		return nil
	})

	suite.Require().NoError(cm.Cleanup(ctx))
	suite.True(flushed.Load(), "cleanup returned before its callback finished")
	suite.False(sawCancellation.Load(), "callback received a cancelled context")
}
