//go:build unit || !integration

package cli

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/eventcollector/cmd/util"
	"github.com/bacalhau-project/eventcollector/pkg/logger"
)

type FinishSuite struct {
	suite.Suite
}

func TestFinishSuite(t *testing.T) {
	suite.Run(t, new(FinishSuite))
}

func (s *FinishSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
}

func (s *FinishSuite) execute(run func(cmd *cobra.Command) error) error {
	root := NewRootCmd()
	root.AddCommand(&cobra.Command{
		Use: "step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"step"})
	return ExecuteContext(context.Background(), root)
}

func (s *FinishSuite) TestCleanupRunsAfterSuccess() {
	var cleaned atomic.Bool
	err := s.execute(func(cmd *cobra.Command) error {
		util.GetCleanupManager(cmd.Context()).RegisterCallback(func() error {
			cleaned.Store(true)
			return nil
		})
		return nil
	})
	s.Require().NoError(err)
	s.True(cleaned.Load())
}

func (s *FinishSuite) TestCleanupRunsAfterFailure() {
	failure := errors.New("step failed")
	var cleaned atomic.Bool
	err := s.execute(func(cmd *cobra.Command) error {
		util.GetCleanupManager(cmd.Context()).RegisterCallback(func() error {
			cleaned.Store(true)
			return nil
		})
		return failure
	})
	s.Require().ErrorIs(err, failure)
	s.True(cleaned.Load(), "cleanup callbacks must run when the command fails")
}

func (s *FinishSuite) TestCleanupErrorsAreReturned() {
	flushErr := errors.New("flush failed")
	err := s.execute(func(cmd *cobra.Command) error {
		util.GetCleanupManager(cmd.Context()).RegisterCallback(func() error { return flushErr })
		return nil
	})
	s.Require().ErrorIs(err, flushErr)
}

func (s *FinishSuite) TestFinishWithoutPreRun() {
	s.NoError(finish(context.Background()))
	s.NoError(finish(nil)) //nolint:staticcheck // commands that never ran have no context
}
