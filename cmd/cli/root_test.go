//go:build unit || !integration

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/eventcollector/cmd/cli"
	"github.com/bacalhau-project/eventcollector/cmd/cli/hash"
	"github.com/bacalhau-project/eventcollector/cmd/cli/probe"
	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/logger"
	"github.com/bacalhau-project/eventcollector/pkg/version"
)

type RootSuite struct {
	suite.Suite
}

func TestRootSuite(t *testing.T) {
	suite.Run(t, new(RootSuite))
}

func (s *RootSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
}

func (s *RootSuite) execute(args ...string) (string, error) {
	cmd := cli.NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cli.ExecuteContext(context.Background(), cmd)
	return stdout.String(), err
}

func (s *RootSuite) TestVersionJSON() {
	out, err := s.execute("version", "--output", "json")
	s.Require().NoError(err)

	var info version.BuildVersionInfo
	s.Require().NoError(json.Unmarshal([]byte(out), &info))
	s.Equal(version.GITVERSION, info.GitVersion)
}

func (s *RootSuite) TestVersionTable() {
	out, err := s.execute("version", "--no-style")
	s.Require().NoError(err)
	s.Contains(out, "VERSION")
	s.Contains(out, version.GITVERSION)
}

func (s *RootSuite) TestInvalidOutputFormat() {
	_, err := s.execute("version", "--output", "xml")
	s.Require().Error(err)
	s.True(bacerrors.HasCode(err, bacerrors.ConfigurationError))
}

func (s *RootSuite) TestHash() {
	dir := s.T().TempDir()
	s.Require().NoError(os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "nested", "b.txt"), []byte("world"), 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "c.bin"), []byte("skip"), 0o600))

	out, err := s.execute("hash", "--output", "json", "--concurrency", "1", filepath.Join(dir, "**", "*.txt"))
	s.Require().NoError(err)

	var rows []hash.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	s.Require().Len(rows, 2)

	expected, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	s.Require().NoError(err)
	s.Equal(filepath.Join(dir, "a.txt"), rows[0].Path)
	s.Equal(int64(5), rows[0].Bytes)
	s.Equal(expected.B58String(), rows[0].Multihash)
	s.Empty(rows[0].Error)
	s.Equal(filepath.Join(dir, "nested", "b.txt"), rows[1].Path)
}

func (s *RootSuite) TestHashNoMatches() {
	_, err := s.execute("hash", filepath.Join(s.T().TempDir(), "*.txt"))
	s.Require().Error(err)
	s.True(bacerrors.HasCode(err, bacerrors.InvalidArgument))
}

func (s *RootSuite) TestProbe() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	out, err := s.execute("probe", "-o", "json", server.URL+"/ok", server.URL+"/missing")
	s.Require().Error(err)
	s.True(bacerrors.HasCode(err, bacerrors.TaskFailed))

	var rows []probe.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	s.Require().Len(rows, 2)
	s.Equal(http.StatusOK, rows[0].StatusCode)
	s.Equal(int64(2), rows[0].Bytes)
	s.Empty(rows[0].Error)
	s.Equal(http.StatusNotFound, rows[1].StatusCode)
	s.Contains(rows[1].Error, "404")
}

func (s *RootSuite) TestProbeTimeout() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	out, err := s.execute("probe", "-o", "json", "--timeout", "50ms", server.URL)
	s.Require().Error(err)
	s.True(bacerrors.HasCode(err, bacerrors.TimedOut))

	var rows []probe.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	s.Require().Len(rows, 1)
	s.NotEmpty(rows[0].Error)
}

func (s *RootSuite) TestProbeInvalidURL() {
	_, err := s.execute("probe", "not a url")
	s.Require().Error(err)
	s.True(bacerrors.HasCode(err, bacerrors.InvalidArgument))
}
