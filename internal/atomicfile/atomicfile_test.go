package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type AtomicFileTestSuite struct {
	suite.Suite
	tempDir string
}

func TestAtomicFileSuite(t *testing.T) {
	suite.Run(t, new(AtomicFileTestSuite))
}

func (s *AtomicFileTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "atomicfile_test_*")
	s.Require().NoError(err)
	s.tempDir = tempDir
}

func (s *AtomicFileTestSuite) TearDownTest() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

func (s *AtomicFileTestSuite) TestWriteThenRead() {
	path := filepath.Join(s.tempDir, "control.json")

	s.Require().NoError(Write(path, []byte(`{"paused":true}`)))

	content, err := Read(path)
	s.Require().NoError(err)
	s.True(content.IsSome())
	s.Equal(`{"paused":true}`, string(content.Unwrap()))
}

func (s *AtomicFileTestSuite) TestWriteReplacesWholesale() {
	path := filepath.Join(s.tempDir, "latest.csv")

	s.Require().NoError(Write(path, []byte("a much longer first version of the file\n")))
	s.Require().NoError(Write(path, []byte("short\n")))

	content, err := Read(path)
	s.Require().NoError(err)
	s.Equal("short\n", string(content.Unwrap()))
}

func (s *AtomicFileTestSuite) TestWriteCreatesParentDirectory() {
	path := filepath.Join(s.tempDir, "nested", "dir", "status.json")

	s.Require().NoError(Write(path, []byte("{}")))
	s.FileExists(path)
}

func (s *AtomicFileTestSuite) TestWriteLeavesNoTemporaryFiles() {
	path := filepath.Join(s.tempDir, "status.json")
	s.Require().NoError(Write(path, []byte("{}")))

	entries, err := os.ReadDir(s.tempDir)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal("status.json", entries[0].Name())
}

func (s *AtomicFileTestSuite) TestReadMissingFile() {
	content, err := Read(filepath.Join(s.tempDir, "missing.json"))
	s.NoError(err)
	s.True(content.IsNone())
}

func (s *AtomicFileTestSuite) TestRenameFailureKeepsPreviousContent() {
	path := filepath.Join(s.tempDir, "target")
	// A non-empty directory at the target path makes the final rename fail.
	s.Require().NoError(os.MkdirAll(filepath.Join(path, "child"), 0755))

	err := Write(path, []byte("new"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeRenameFailed))
	s.DirExists(filepath.Join(path, "child"))

	entries, err := os.ReadDir(s.tempDir)
	s.Require().NoError(err)
	for _, entry := range entries {
		s.False(strings.HasSuffix(entry.Name(), TempSuffix), "staging file left behind: %s", entry.Name())
	}
}

func (s *AtomicFileTestSuite) TestConcurrentWritersNeverExposePartialContent() {
	path := filepath.Join(s.tempDir, "control.json")
	payloads := []string{
		strings.Repeat("a", 4096),
		strings.Repeat("b", 8192),
		strings.Repeat("c", 16384),
	}

	var wg sync.WaitGroup
	for _, payload := range payloads {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				s.NoError(Write(path, []byte(p)))
			}
		}(payload)
	}

	for i := 0; i < 200; i++ {
		content, err := Read(path)
		s.Require().NoError(err)
		if content.IsSome() {
			s.Contains(payloads, string(content.Unwrap()))
		}
	}

	wg.Wait()
}

func (s *AtomicFileTestSuite) TestWriteJSONAndReadJSON() {
	path := filepath.Join(s.tempDir, "state.json")
	type state struct {
		Paused bool `json:"paused"`
		Stop   bool `json:"stop"`
	}

	s.Require().NoError(WriteJSON(path, state{Paused: true}))

	var got state
	found, err := ReadJSON(path, &got)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(state{Paused: true}, got)
}

func (s *AtomicFileTestSuite) TestReadJSONCorrupt() {
	path := filepath.Join(s.tempDir, "state.json")
	s.Require().NoError(os.WriteFile(path, []byte(`{"paused":`), 0644))

	var got map[string]any
	found, err := ReadJSON(path, &got)
	s.True(found)
	s.Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDecodeFailed))
}

func (s *AtomicFileTestSuite) TestReadJSONMissing() {
	var got map[string]any
	found, err := ReadJSON(filepath.Join(s.tempDir, "nope.json"), &got)
	s.NoError(err)
	s.False(found)
}
