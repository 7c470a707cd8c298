// Package capture buffers process output and HTTP traffic produced during a
// grading run, keyed by (question, stage, channel).
//
// The store is the one piece of shared mutable state in a run: background
// output pumps append lines under whatever question/stage the executor has
// marked current, so a long-lived process keeps streaming into the logically
// active step across its whole lifetime.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/regrade/internal/errors"
	"github.com/felixgeelhaar/regrade/internal/suite"
)

// Channel identifies which side of the exchange a capture belongs to. The
// value doubles as the directory name under resultRoot/actual.
type Channel string

const (
	ChannelClientOutput   Channel = "clients"
	ChannelServerOutput   Channel = "servers"
	ChannelServerRequest  Channel = "servers-req"
	ChannelServerResponse Channel = "servers-resp"
)

// Key addresses one capture buffer.
type Key struct {
	Question string
	Stage    suite.Stage
	Channel  Channel
}

// HTTPMetadata carries the request/response attributes captured alongside a
// body for HTTP validations.
type HTTPMetadata struct {
	Method     string
	StatusCode string
	ByteSize   int64
}

type entry struct {
	buf  strings.Builder
	meta *HTTPMetadata
}

// Store is a thread-safe, run-scoped capture buffer. Entries are created
// lazily on first write and live until the run is torn down.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry

	curQuestion string
	curStage    suite.Stage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

// SetCurrent marks the question/stage that streaming output should be
// attributed to. Called by the executor immediately before each step;
// pumps read it at line-arrival time.
func (s *Store) SetCurrent(question string, stage suite.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curQuestion = question
	s.curStage = stage
}

// Current returns the active question and stage.
func (s *Store) Current() (string, suite.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.curQuestion, s.curStage
}

// Append adds one line to the buffer for key. A trailing newline is added;
// no reader can observe a partial line.
func (s *Store) Append(key Key, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	e.buf.WriteString(line)
	e.buf.WriteByte('\n')
}

// AppendCurrent adds one line under the currently active question/stage on
// the given channel. Used by process output pumps.
func (s *Store) AppendCurrent(channel Channel, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(Key{Question: s.curQuestion, Stage: s.curStage, Channel: channel})
	e.buf.WriteString(line)
	e.buf.WriteByte('\n')
}

// Set replaces the buffer for key wholesale. Used for HTTP captures where
// the full body arrives at once.
func (s *Store) Set(key Key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(key)
	e.buf.Reset()
	e.buf.WriteString(content)
}

// TryGetOutput returns the captured content for key, if any was written.
func (s *Store) TryGetOutput(key Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	return e.buf.String(), true
}

// SetHTTPMetadata attaches HTTP attributes to the capture for key.
func (s *Store) SetHTTPMetadata(key Key, meta HTTPMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(key).meta = &meta
}

// TryGetHTTPMetadata returns the HTTP attributes for key, if set.
func (s *Store) TryGetHTTPMetadata(key Key) (HTTPMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.meta == nil {
		return HTTPMetadata{}, false
	}
	return *e.meta, true
}

// Keys returns every key with a capture, in stable order.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Question != b.Question {
			return a.Question < b.Question
		}
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		return a.Channel < b.Channel
	})
	return keys
}

// entry returns the buffer for key, creating it lazily. Caller holds mu.
func (s *Store) entry(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// ActualPath returns the on-disk location for a capture:
// resultRoot/actual/<channel>/<question>/stage_<n>.txt
func ActualPath(resultRoot string, key Key) string {
	return filepath.Join(resultRoot, "actual", string(key.Channel), key.Question,
		fmt.Sprintf("stage_%d.txt", key.Stage.Ordinal()))
}

// WriteFile persists the capture for key under resultRoot and returns the
// written path. Missing captures write an empty file so stage boundaries
// remain visible on disk.
func (s *Store) WriteFile(resultRoot string, key Key) (string, error) {
	content, _ := s.TryGetOutput(key)
	path := ActualPath(resultRoot, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteFailed, "failed to create capture directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(errors.CodeFileWriteFailed, "failed to write capture file", err)
	}
	return path, nil
}
