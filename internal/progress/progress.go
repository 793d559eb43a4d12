// Package progress defines the events a conversion batch emits and the
// reporters that consume them.
package progress

import (
	"sort"
	"sync"
)

// Stage identifies a step in the per-file conversion.
type Stage string

const (
	StageQueued     Stage = "queued"
	StageStaging    Stage = "staging"
	StageEncoding   Stage = "encoding"
	StageCollecting Stage = "collecting"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

// Terminal reports whether no further updates follow this stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a file.
// Percent is 0..100 when known; negative means unknown.
type Update struct {
	JobID   string
	Index   int
	Name    string
	Stage   Stage
	Percent int
	Message string
}

// Log is an engine output line associated with a file.
type Log struct {
	JobID  string
	Index  int
	Stream LogStream
	Line   string
}

// Result is emitted once per file when it completes or fails.
type Result struct {
	JobID  string
	Index  int
	Name   string
	Output string
	Bytes  int64
	Err    error // nil on success
}

// Reporter is implemented by UIs or any observer interested in progress events.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) Update(u Update) {
	for _, r := range m {
		r.Update(u)
	}
}

func (m Multi) Log(l Log) {
	for _, r := range m {
		r.Log(l)
	}
}

func (m Multi) Result(res Result) {
	for _, r := range m {
		r.Result(res)
	}
}

// FileState is the latest known state of one file.
type FileState struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Stage   Stage  `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Snapshot keeps the last update per file. Later updates overwrite earlier ones.
// An event carrying a different job ID starts a fresh view.
type Snapshot struct {
	mu    sync.Mutex
	jobID string
	files map[int]FileState
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{files: map[int]FileState{}}
}

// Reset clears the snapshot for a new batch.
func (s *Snapshot) Reset(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobID = jobID
	s.files = map[int]FileState{}
}

// follow switches to jobID when it names a new batch. Caller holds mu.
func (s *Snapshot) follow(jobID string) {
	if jobID != "" && jobID != s.jobID {
		s.jobID = jobID
		s.files = map[int]FileState{}
	}
}

func (s *Snapshot) Update(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follow(u.JobID)
	fs := s.files[u.Index]
	fs.Index = u.Index
	if u.Name != "" {
		fs.Name = u.Name
	}
	fs.Stage = u.Stage
	if u.Percent >= 0 {
		fs.Percent = u.Percent
	}
	fs.Message = u.Message
	s.files[u.Index] = fs
}

func (s *Snapshot) Log(Log) {}

func (s *Snapshot) Result(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follow(r.JobID)
	fs := s.files[r.Index]
	fs.Index = r.Index
	if r.Name != "" {
		fs.Name = r.Name
	}
	if r.Err != nil {
		fs.Stage = StageError
		fs.Error = r.Err.Error()
	} else {
		fs.Stage = StageCompleted
		fs.Percent = 100
	}
	s.files[r.Index] = fs
}

// Files returns the per-file states ordered by index.
func (s *Snapshot) Files() (jobID string, files []FileState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files = make([]FileState, 0, len(s.files))
	for _, fs := range s.files {
		files = append(files, fs)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Index < files[j].Index })
	return s.jobID, files
}
