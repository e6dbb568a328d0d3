package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/flowgroup/component"
	"github.com/c360/flowgroup/types"
)

// localScheduler is the in-process scheduler used when no external execution
// engine is attached. It performs the admitted state transitions and tracks
// thread counts, but does not execute processor logic; execution engines
// replace it through the component.Scheduler contract.
type localScheduler struct {
	logger *slog.Logger
	tasks  chan func()
	wg     sync.WaitGroup

	mu      sync.Mutex
	threads map[string]int
}

const frameworkWorkers = 4

func newLocalScheduler(logger *slog.Logger) *localScheduler {
	s := &localScheduler{
		logger:  logger,
		tasks:   make(chan func(), 64),
		threads: make(map[string]int),
	}
	for i := 0; i < frameworkWorkers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for task := range s.tasks {
				task()
			}
		}()
	}
	return s
}

// Shutdown stops the framework workers after draining queued tasks
func (s *localScheduler) Shutdown() {
	close(s.tasks)
	s.wg.Wait()
}

func completed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

func (s *localScheduler) StartProcessor(_ context.Context, processor *component.ProcessorNode) <-chan error {
	processor.SetScheduledState(types.StateRunning)
	s.logger.Debug("processor started", "processor_id", processor.Identifier())
	return completed(nil)
}

func (s *localScheduler) RunProcessorOnce(_ context.Context, processor *component.ProcessorNode) <-chan error {
	processor.SetScheduledState(types.StateRunOnce)
	return completed(nil)
}

func (s *localScheduler) StopProcessor(processor *component.ProcessorNode) <-chan error {
	processor.SetScheduledState(types.StateStopped)
	s.logger.Debug("processor stopped", "processor_id", processor.Identifier())
	return completed(nil)
}

func (s *localScheduler) TerminateProcessor(processor *component.ProcessorNode) error {
	s.mu.Lock()
	delete(s.threads, processor.Identifier())
	s.mu.Unlock()
	return nil
}

func (s *localScheduler) StartPort(port *component.Port) error {
	port.SetScheduledState(types.StateRunning)
	return nil
}

func (s *localScheduler) StopPort(port *component.Port) error {
	port.SetScheduledState(types.StateStopped)
	return nil
}

func (s *localScheduler) StartFunnel(funnel *component.Funnel) error {
	funnel.SetScheduledState(types.StateRunning)
	return nil
}

func (s *localScheduler) StopFunnel(funnel *component.Funnel) error {
	funnel.SetScheduledState(types.StateStopped)
	return nil
}

func (s *localScheduler) EnableProcessor(processor *component.ProcessorNode) {
	processor.SetScheduledState(types.StateStopped)
}

func (s *localScheduler) DisableProcessor(processor *component.ProcessorNode) {
	processor.SetScheduledState(types.StateDisabled)
}

func (s *localScheduler) EnablePort(port *component.Port) {
	port.SetScheduledState(types.StateStopped)
}

func (s *localScheduler) DisablePort(port *component.Port) {
	port.SetScheduledState(types.StateDisabled)
}

func (s *localScheduler) SubmitFrameworkTask(task func()) {
	s.tasks <- task
}

func (s *localScheduler) ActiveThreadCount(connectable component.Connectable) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads[connectable.Identifier()]
}
