// Package pipeline sequences the three extraction stages over a task:
// page discovery, parallel content extraction and result integration.
// Reasoning is delegated to the llm capability, page loading to the crawl
// capability; this package owns only the control flow and the task record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/dreamerjackson/extractra/extract"
	"go.uber.org/zap"
)

// progress milestones per stage entry; completion pins 100.
const (
	progressDiscovery   = 10
	progressExtraction  = 30
	progressIntegration = 70
	progressDone        = 100
)

type Orchestrator struct {
	options
}

func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if options.Store == nil {
		return nil, errors.New("task store is required")
	}
	if options.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if options.LLM == nil {
		return nil, errors.New("llm service is required")
	}
	if options.Reconciler == nil {
		options.Reconciler = NewRuleReconciler()
	}

	return &Orchestrator{options: options}, nil
}

// Start validates and persists a new task, then runs the pipeline in the
// background. The returned task is the pending snapshot.
func (o *Orchestrator) Start(requirements, targetURL, userID string) (extract.Task, error) {
	t, err := o.Store.Create(requirements, targetURL, userID)
	if err != nil {
		return extract.Task{}, err
	}

	o.Logger.Info("task created",
		zap.String("task", t.ID),
		zap.String("url", targetURL),
		zap.String("user", userID),
	)

	go o.run(t.ID)

	return t, nil
}

func (o *Orchestrator) run(id string) {
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("pipeline panic",
				zap.String("task", id),
				zap.Any("err", r),
				zap.String("stack", string(debug.Stack())),
			)
			o.fail(id, extract.Agent(""), fmt.Errorf("unexpected error: %v", r))
		}
	}()

	task, err := o.Store.Get(id)
	if err != nil {
		return
	}

	ctx := context.Background()

	// phase 1: page discovery
	if !o.transition(id, extract.StatusDiscovery, progressDiscovery,
		extract.AgentPageDiscovery, "discovering relevant pages") {
		return
	}

	pages, err := o.discover(ctx, task.TargetURL, task.Requirements)
	if err != nil {
		o.fail(id, extract.AgentPageDiscovery, err)
		return
	}
	o.Logger.Info("discovery done",
		zap.String("task", id),
		zap.Int("pages", len(pages)),
	)

	// phase 2: parallel content extraction
	if !o.transition(id, extract.StatusExtraction, progressExtraction,
		extract.AgentContentExtraction,
		fmt.Sprintf("extracting content from %d pages", len(pages))) {
		return
	}

	ext, err := o.extractAll(ctx, pages, task.Requirements)
	if err != nil {
		o.fail(id, extract.AgentContentExtraction, err)
		return
	}

	// phase 3: result integration
	if !o.transition(id, extract.StatusIntegration, progressIntegration,
		extract.AgentResultIntegration, "integrating extracted data") {
		return
	}

	ds, err := o.integrate(ctx, ext)
	if err != nil {
		o.fail(id, extract.AgentResultIntegration, err)
		return
	}

	if err := o.Store.Update(id, func(t *extract.Task) {
		t.Status = extract.StatusCompleted
		t.Progress = progressDone
		t.Message = "task completed"
		t.Result = ds
	}); err != nil {
		// task was deleted mid-flight, results just get dropped
		o.Logger.Debug("task gone before completion", zap.String("task", id))
		return
	}

	if err := o.Storage.Save(id, ds); err != nil {
		o.Logger.Error("persist dataset failed",
			zap.String("task", id),
			zap.Error(err),
		)
	}

	o.Logger.Info("task completed",
		zap.String("task", id),
		zap.Int("records", ds.Summary.TotalRecords),
	)
}

// transition persists the next stage before it starts, so status readers
// always see a consistent (status, agent, progress) triple. A false return
// means the task vanished and the pipeline must stop quietly.
func (o *Orchestrator) transition(id string, status extract.Status, progress int,
	agent extract.Agent, message string) bool {
	err := o.Store.Update(id, func(t *extract.Task) {
		t.Status = status
		t.Progress = progress
		t.CurrentAgent = agent
		t.Message = message
	})
	if err != nil {
		o.Logger.Debug("task gone, aborting pipeline",
			zap.String("task", id),
			zap.String("status", string(status)),
		)
		return false
	}
	return true
}

// fail marks the task terminal; progress stays frozen at its last value.
func (o *Orchestrator) fail(id string, agent extract.Agent, cause error) {
	err := o.Store.Update(id, func(t *extract.Task) {
		t.Status = extract.StatusFailed
		t.CurrentAgent = agent
		t.Message = "task failed"
		t.Error = cause.Error()
	})
	if err != nil {
		return
	}

	o.Logger.Error("task failed",
		zap.String("task", id),
		zap.String("agent", string(agent)),
		zap.Error(cause),
	)
}
