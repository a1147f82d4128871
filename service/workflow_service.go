package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/autopilot/analytics"
	"github.com/mohitkumar/autopilot/logger"
	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/persistence"
	"github.com/mohitkumar/autopilot/util"
	"github.com/mohitkumar/autopilot/workflow"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var ErrWorkflowNotFound = errors.New("workflow not found")

type RunState string

const RUN_STATE_RUNNING RunState = "RUNNING"
const RUN_STATE_COMPLETED RunState = "COMPLETED"
const RUN_STATE_FAILED RunState = "FAILED"

const runRetention = time.Hour

type WorkflowRun struct {
	Id     string                         `json:"id"`
	Name   string                         `json:"name"`
	State  RunState                       `json:"state"`
	Result *model.WorkflowExecutionResult `json:"result,omitempty"`
}

type runTask struct {
	id  string
	wf  *workflow.Workflow
	req model.WorkflowRunRequest
}

type WorkflowService struct {
	store     persistence.WorkflowStore
	executor  *workflow.Executor
	collector analytics.PatternDataCollector
	clock     util.Clock
	runs      *c.Cache
	worker    *util.Worker
}

func NewWorkflowService(store persistence.WorkflowStore, runner workflow.PatternRunner, collector analytics.PatternDataCollector, clock util.Clock, capacity int, wg *sync.WaitGroup) *WorkflowService {
	if collector == nil {
		collector = analytics.NoopDataCollector{}
	}
	if clock == nil {
		clock = util.SystemClock
	}
	if capacity <= 0 {
		capacity = 1
	}
	s := &WorkflowService{
		store:     store,
		executor:  workflow.NewExecutor(runner, clock),
		collector: collector,
		clock:     clock,
		runs:      c.New(runRetention, 10*time.Minute),
	}
	s.worker = util.NewWorker("workflow-runner", wg, s.handleRun, capacity)
	return s
}

func (s *WorkflowService) Start() {
	s.worker.Start()
}

func (s *WorkflowService) Stop() {
	s.worker.Stop()
}

// Register validates def and stores it.
func (s *WorkflowService) Register(def model.WorkflowDefinition) (*workflow.Workflow, error) {
	wf, err := workflow.Build(def)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(wf.Definition()); err != nil {
		logger.Error("error saving workflow", zap.String("workflow", def.Name), zap.Error(err))
		return nil, err
	}
	logger.Info("workflow registered", zap.String("workflow", def.Name), zap.Int("phases", len(def.Phases)))
	return wf, nil
}

func (s *WorkflowService) Get(name string) (*workflow.Workflow, error) {
	def, err := s.store.Get(name)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
		}
		return nil, err
	}
	return workflow.Build(*def)
}

func (s *WorkflowService) Run(ctx context.Context, req model.WorkflowRunRequest) (*WorkflowRun, error) {
	wf, err := s.Get(req.Name)
	if err != nil {
		return nil, err
	}
	if req.Context, err = req.Context.Normalize(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.run(ctx, runTask{id: uuid.New().String(), wf: wf, req: req}), nil
}

// RunAsync queues a run and returns its id. The result is available from
// GetRun once the run finishes.
func (s *WorkflowService) RunAsync(req model.WorkflowRunRequest) (string, error) {
	wf, err := s.Get(req.Name)
	if err != nil {
		return "", err
	}
	if req.Context, err = req.Context.Normalize(s.clock.Now()); err != nil {
		return "", err
	}
	id := uuid.New().String()
	s.runs.Set(id, &WorkflowRun{Id: id, Name: req.Name, State: RUN_STATE_RUNNING}, c.DefaultExpiration)
	if err := s.worker.Submit(runTask{id: id, wf: wf, req: req}); err != nil {
		s.runs.Delete(id)
		return "", err
	}
	return id, nil
}

func (s *WorkflowService) GetRun(id string) (*WorkflowRun, bool) {
	v, found := s.runs.Get(id)
	if !found {
		return nil, false
	}
	run := *v.(*WorkflowRun)
	return &run, true
}

func (s *WorkflowService) handleRun(t util.Task) error {
	task, ok := t.(runTask)
	if !ok {
		return fmt.Errorf("unexpected task %T", t)
	}
	s.run(context.Background(), task)
	return nil
}

func (s *WorkflowService) run(ctx context.Context, task runTask) *WorkflowRun {
	result := s.executor.Execute(ctx, task.wf, workflow.RunRequest{
		Context:       task.req.Context,
		Input:         task.req.Input,
		ExcludePhases: task.req.ExcludePhases,
	})
	state := RUN_STATE_COMPLETED
	if !result.Success {
		state = RUN_STATE_FAILED
	}
	run := &WorkflowRun{
		Id:     task.id,
		Name:   task.wf.Name(),
		State:  state,
		Result: &result,
	}
	s.runs.Set(task.id, run, c.DefaultExpiration)
	s.collector.RecordWorkflowRun(run.Name, run.Id, result)
	return run
}
