package group

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/config"
	"github.com/c360/flowgroup/flowmanager"
	"github.com/c360/flowgroup/state"
	"github.com/c360/flowgroup/types"
)

// fakeScheduler applies state transitions synchronously and records calls
type fakeScheduler struct {
	mu            sync.Mutex
	activeThreads map[string]int
	startCalls    int
	stopCalls     int
	startErr      error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{activeThreads: make(map[string]int)}
}

func (s *fakeScheduler) setActiveThreads(id string, count int) {
	s.mu.Lock()
	s.activeThreads[id] = count
	s.mu.Unlock()
}

func (s *fakeScheduler) StartProcessor(_ context.Context, p *component.ProcessorNode) <-chan error {
	s.mu.Lock()
	s.startCalls++
	err := s.startErr
	s.mu.Unlock()

	ch := make(chan error, 1)
	if err != nil {
		ch <- err
	} else {
		p.SetScheduledState(types.StateRunning)
	}
	close(ch)
	return ch
}

func (s *fakeScheduler) RunProcessorOnce(_ context.Context, p *component.ProcessorNode) <-chan error {
	p.SetScheduledState(types.StateRunOnce)
	ch := make(chan error, 1)
	close(ch)
	return ch
}

func (s *fakeScheduler) StopProcessor(p *component.ProcessorNode) <-chan error {
	s.mu.Lock()
	s.stopCalls++
	s.mu.Unlock()

	p.SetScheduledState(types.StateStopped)
	ch := make(chan error, 1)
	close(ch)
	return ch
}

func (s *fakeScheduler) TerminateProcessor(p *component.ProcessorNode) error {
	s.setActiveThreads(p.Identifier(), 0)
	return nil
}

func (s *fakeScheduler) StartPort(p *component.Port) error {
	p.SetScheduledState(types.StateRunning)
	return nil
}

func (s *fakeScheduler) StopPort(p *component.Port) error {
	p.SetScheduledState(types.StateStopped)
	return nil
}

func (s *fakeScheduler) StartFunnel(f *component.Funnel) error {
	f.SetScheduledState(types.StateRunning)
	return nil
}

func (s *fakeScheduler) StopFunnel(f *component.Funnel) error {
	f.SetScheduledState(types.StateStopped)
	return nil
}

func (s *fakeScheduler) EnableProcessor(p *component.ProcessorNode) {
	p.SetScheduledState(types.StateStopped)
}

func (s *fakeScheduler) DisableProcessor(p *component.ProcessorNode) {
	p.SetScheduledState(types.StateDisabled)
}

func (s *fakeScheduler) EnablePort(p *component.Port) {
	p.SetScheduledState(types.StateStopped)
}

func (s *fakeScheduler) DisablePort(p *component.Port) {
	p.SetScheduledState(types.StateDisabled)
}

func (s *fakeScheduler) SubmitFrameworkTask(task func()) { task() }

func (s *fakeScheduler) ActiveThreadCount(c component.Connectable) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeThreads[c.Identifier()]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDeps() (Dependencies, *fakeScheduler) {
	scheduler := newFakeScheduler()
	deps := Dependencies{
		Scheduler:     scheduler,
		FlowManager:   flowmanager.New(testLogger()),
		StateProvider: state.NewMemoryProvider(),
		Logger:        testLogger(),
		Defaults:      config.DefaultConfig(),
	}
	return deps, scheduler
}

// newTestTree builds a root with one child group sharing the same deps
func newTestTree() (root, child *ProcessGroup, scheduler *fakeScheduler) {
	deps, scheduler := newTestDeps()
	root = NewProcessGroup("root", "Root", deps)
	child = NewProcessGroup("child", "Child", deps)
	if err := root.AddProcessGroup(child); err != nil {
		panic(err)
	}
	return root, child, scheduler
}
