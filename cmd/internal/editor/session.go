// Package editor implements debounced autosave for a single open note.
//
// Edits are buffered locally and flushed to a Saver once no further edit
// arrives within the debounce window. Rapid edits coalesce into one save
// carrying only the latest value of each changed field.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"sharenotes/cmd/internal/contract"
)

const (
	DefaultDebounce    = 1000 * time.Millisecond
	DefaultSaveTimeout = 10 * time.Second
)

var ErrNoNote = errors.New("editor: no note is open")

type State int

const (
	Idle State = iota
	Dirty
	Saving
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Patch holds the fields changed since the last successful save.
type Patch struct {
	Title   *string
	Content *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// Saver persists patches. Calls are keyed by note ID, never by "the current note".
type Saver interface {
	SaveNote(ctx context.Context, noteID int64, patch Patch) (*contract.NoteResponse, error)
	SetVisibility(ctx context.Context, noteID int64, isPublic bool) (*contract.NoteResponse, error)
}

// Listener is notified of save outcomes, including saves of notes that are no longer open.
type Listener interface {
	OnSaved(note *contract.NoteResponse)
	OnError(noteID int64, err error)
}

type Options struct {
	Debounce    time.Duration
	SaveTimeout time.Duration
	Clock       Clock
	Listener    Listener
}

type Session struct {
	saver Saver
	opts  Options

	mu      sync.Mutex
	note    *contract.NoteResponse
	pending Patch
	state   State
	timer   Timer

	// armed identifies the latest debounce timer, older timers fire as no-ops.
	armed uint64
	// chain is replaced on every Open, saves of older chains never touch the buffer.
	chain *saveChain
	// seq identifies the latest dispatched save of the current chain.
	seq uint64
	// idle is signalled whenever a chain finishes a save.
	idle *sync.Cond

	inflight sync.WaitGroup
}

// saveChain runs the saves of one opened note strictly one after another,
// so the server always applies them in typing order.
type saveChain struct {
	noteID int64
	busy   bool
	// resave is set when the debounce fired while a save was running.
	resave bool
	// handoff holds the edits left behind by Open while a save was running.
	handoff Patch
}

func New(saver Saver, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Listener == nil {
		opts.Listener = nopListener{}
	}

	s := &Session{saver: saver, opts: opts, chain: &saveChain{}}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Open makes note the active note. Pending edits of the previous note are
// saved in the background.
func (s *Session) Open(note *contract.NoteResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	if s.note != nil && !s.pending.IsEmpty() {
		if s.chain.busy {
			s.chain.handoff = s.pending
		} else {
			job := s.takePendingLocked()
			go s.runWithTimeout(job)
		}
	}

	s.chain = &saveChain{noteID: noteIDOf(note)}
	s.seq = 0
	s.note = copyNote(note)
	s.pending = Patch{}
	s.state = Idle
	s.idle.Broadcast()
}

func (s *Session) EditTitle(title string) error {
	return s.edit(func() {
		s.note.Title = title
		s.pending.Title = &title
	})
}

func (s *Session) EditContent(content string) error {
	return s.edit(func() {
		s.note.Content = content
		s.pending.Content = &content
	})
}

func (s *Session) edit(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.note == nil {
		return ErrNoNote
	}

	apply()
	s.state = Dirty
	s.armLocked()
	return nil
}

// Flush dispatches pending edits right away and waits for that save. A save
// already running for the note is awaited first.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()

	chain := s.chain
	for chain.busy && chain == s.chain {
		s.idle.Wait()
	}

	if chain != s.chain || s.note == nil || s.pending.IsEmpty() {
		s.mu.Unlock()
		return nil
	}

	job := s.takePendingLocked()
	s.mu.Unlock()

	return s.run(ctx, job)
}

// Wait blocks until every dispatched save has completed.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Close flushes pending edits and waits for in-flight saves.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.Wait()
	return err
}

// SetPublic changes visibility immediately, outside the debounce cycle.
func (s *Session) SetPublic(ctx context.Context, isPublic bool) (*contract.NoteResponse, error) {
	s.mu.Lock()
	if s.note == nil {
		s.mu.Unlock()
		return nil, ErrNoNote
	}
	noteID := s.note.ID
	chain := s.chain
	s.mu.Unlock()

	resp, err := s.saver.SetVisibility(ctx, noteID, isPublic)
	if err != nil {
		s.opts.Listener.OnError(noteID, err)
		return nil, err
	}

	s.mu.Lock()
	if chain == s.chain {
		s.note.IsPublic = resp.IsPublic
		mergeMetadata(s.note, resp)
	}
	s.mu.Unlock()

	s.opts.Listener.OnSaved(resp)
	return resp, nil
}

// Note returns a copy of the active note including unsaved edits.
func (s *Session) Note() *contract.NoteResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyNote(s.note)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the edits not yet handed to the Saver.
func (s *Session) Pending() Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

type saveJob struct {
	chain *saveChain
	seq   uint64
	patch Patch
}

func (s *Session) armLocked() {
	s.stopTimerLocked()
	s.armed++
	token := s.armed
	s.timer = s.opts.Clock.AfterFunc(s.opts.Debounce, func() {
		s.fire(token)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed++
}

func (s *Session) fire(token uint64) {
	s.mu.Lock()
	if token != s.armed || s.pending.IsEmpty() {
		s.mu.Unlock()
		return
	}

	s.timer = nil
	if s.chain.busy {
		// The running save dispatches these edits once it is done.
		s.chain.resave = true
		s.mu.Unlock()
		return
	}

	job := s.takePendingLocked()
	s.mu.Unlock()

	_ = s.runWithTimeout(job)
}

func (s *Session) takePendingLocked() saveJob {
	s.seq++
	job := saveJob{
		chain: s.chain,
		seq:   s.seq,
		patch: s.pending,
	}

	s.pending = Patch{}
	s.state = Saving
	s.chain.busy = true
	s.inflight.Add(1)
	return job
}

func (s *Session) runWithTimeout(job saveJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()
	return s.run(ctx, job)
}

func (s *Session) run(ctx context.Context, job saveJob) error {
	defer s.inflight.Done()

	resp, err := s.saver.SaveNote(ctx, job.chain.noteID, job.patch)

	s.mu.Lock()
	current := job.chain == s.chain
	switch {
	case err != nil && current:
		s.state = Error
		s.restoreLocked(job.patch)
	case err == nil && current:
		s.mergeLocked(job, resp)
	}
	next, ok := s.nextLocked(job.chain)
	s.mu.Unlock()

	if err != nil {
		s.opts.Listener.OnError(job.chain.noteID, err)
	} else {
		s.opts.Listener.OnSaved(resp)
	}

	if ok {
		go s.runWithTimeout(next)
	}
	return err
}

// nextLocked ends the running save of chain and picks the save that was
// waiting behind it, if any.
func (s *Session) nextLocked(chain *saveChain) (saveJob, bool) {
	defer s.idle.Broadcast()

	chain.busy = false
	resave := chain.resave
	chain.resave = false

	if chain == s.chain {
		if !resave || s.pending.IsEmpty() {
			return saveJob{}, false
		}
		return s.takePendingLocked(), true
	}

	if chain.handoff.IsEmpty() {
		return saveJob{}, false
	}

	job := saveJob{chain: chain, patch: chain.handoff}
	chain.handoff = Patch{}
	chain.busy = true
	s.inflight.Add(1)
	return job, true
}

// restoreLocked puts the fields of a failed patch back into pending, using the
// buffer's value so edits made during the save are not lost.
func (s *Session) restoreLocked(failed Patch) {
	if failed.Title != nil && s.pending.Title == nil {
		title := s.note.Title
		s.pending.Title = &title
	}
	if failed.Content != nil && s.pending.Content == nil {
		content := s.note.Content
		s.pending.Content = &content
	}
}

func (s *Session) mergeLocked(job saveJob, resp *contract.NoteResponse) {
	if resp == nil {
		return
	}

	latest := job.seq == s.seq && s.state == Saving
	if latest {
		// Nothing was typed since this save was dispatched, the server copy is the buffer.
		s.note = copyNote(resp)
		s.state = Idle
		return
	}
	mergeMetadata(s.note, resp)
}

func mergeMetadata(dst, src *contract.NoteResponse) {
	dst.OwnerID = src.OwnerID
	dst.CreatedAt = src.CreatedAt
	if src.UpdatedAt > dst.UpdatedAt {
		dst.UpdatedAt = src.UpdatedAt
	}
}

func noteIDOf(note *contract.NoteResponse) int64 {
	if note == nil {
		return 0
	}
	return note.ID
}

func copyNote(note *contract.NoteResponse) *contract.NoteResponse {
	if note == nil {
		return nil
	}
	cp := *note
	return &cp
}

type nopListener struct{}

func (nopListener) OnSaved(*contract.NoteResponse) {}
func (nopListener) OnError(int64, error)          {}
