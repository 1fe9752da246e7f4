package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
)

var errInjected = errors.New("injected failure")

// memLog is an in-memory ports.CommandLog with failure injection.
type memLog struct {
	mu        sync.Mutex
	pending   *domain.SequenceBuilder
	committed *domain.Sequence
	begins    int

	failBegin  bool
	failAppend bool
	failCommit bool
	loadErr    error
}

func (m *memLog) BeginSession(_ context.Context, meta domain.SessionMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failBegin {
		return errInjected
	}
	m.begins++
	m.pending = domain.NewSequenceBuilder(meta)
	return nil
}

func (m *memLog) Append(_ context.Context, cmd domain.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return domain.ErrNotRecording
	}
	if m.failAppend {
		return errInjected
	}
	m.pending.Append(cmd)
	return nil
}

func (m *memLog) CommitSession(_ context.Context) (domain.Sequence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return domain.Sequence{}, domain.ErrNotRecording
	}
	if m.failCommit {
		return domain.Sequence{}, errInjected
	}
	seq := m.pending.Build()
	m.committed = &seq
	m.pending = nil
	return seq, nil
}

func (m *memLog) Load(_ context.Context) (domain.Sequence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Sequence{}, m.loadErr
	}
	if m.committed == nil {
		return domain.Sequence{}, domain.ErrNoRecordingAvailable
	}
	return *m.committed, nil
}

func (m *memLog) set(seq domain.Sequence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = &seq
}

func (m *memLog) pendingLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0
	}
	return m.pending.Len()
}

func (m *memLog) committedSeq() (domain.Sequence, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.committed == nil {
		return domain.Sequence{}, false
	}
	return *m.committed, true
}

// recPublisher records published payloads; the first failures publishes fail.
type recPublisher struct {
	mu       sync.Mutex
	payloads []string
	failures int
}

func (p *recPublisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return domain.ErrChannelUnavailable
	}
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func (p *recPublisher) Published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.payloads...)
}

// chanSource delivers payloads sent on ch and reports io.EOF once ch is closed.
type chanSource struct {
	ch chan []byte

	mu          sync.Mutex
	unavailable int
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan []byte)}
}

func (s *chanSource) Receive(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if s.unavailable > 0 {
		s.unavailable--
		s.mu.Unlock()
		return nil, domain.ErrChannelUnavailable
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return p, nil
	}
}

func (s *chanSource) send(payload string) {
	s.ch <- []byte(payload)
}

type armEvent struct {
	machine  domain.Machine
	previous domain.ArmState
	current  domain.ArmState
}

// armRecorder collects arm state changes and errors.
type armRecorder struct {
	mu     sync.Mutex
	events []armEvent
	errs   []string
}

func (r *armRecorder) OnArmStateChange(machine domain.Machine, previous, current domain.ArmState, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, armEvent{machine, previous, current})
}

func (r *armRecorder) OnError(machine domain.Machine, op string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, string(machine)+"/"+op)
}

func (r *armRecorder) Events() []armEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]armEvent(nil), r.events...)
}

func (r *armRecorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errs...)
}

// last returns the most recent state reported for machine.
func (r *armRecorder) last(machine domain.Machine) domain.ArmState {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].machine == machine {
			return r.events[i].current
		}
	}
	return domain.Idle
}

// waitFor polls cond until it holds or a second passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func mustSequence(offsets []time.Duration, payloads ...string) domain.Sequence {
	cmds := make([]domain.Command, len(payloads))
	for i, p := range payloads {
		cmds[i] = domain.NewCommand([]byte(p), offsets[i])
	}
	seq, err := domain.NewSequence(domain.SessionMeta{ID: "fixture"}, cmds)
	if err != nil {
		panic(err)
	}
	return seq
}
