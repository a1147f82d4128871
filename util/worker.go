package util

import (
	"errors"
	"sync"

	"github.com/mohitkumar/autopilot/logger"
	"go.uber.org/zap"
)

var ErrWorkerFull = errors.New("worker queue is full")

type Task any

type Worker struct {
	name     string
	stop     chan struct{}
	wg       *sync.WaitGroup
	handler  func(Task) error
	taskChan chan Task
}

func NewWorker(name string, wg *sync.WaitGroup, handler func(Task) error, capacity int) *Worker {
	return &Worker{
		taskChan: make(chan Task, capacity),
		name:     name,
		wg:       wg,
		stop:     make(chan struct{}),
		handler:  handler,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case task := <-w.taskChan:
				if err := w.handler(task); err != nil {
					logger.Error("error in executing task in worker", zap.String("worker", w.name), zap.Error(err))
				}
			case <-w.stop:
				logger.Info("stopping worker", zap.String("worker", w.name))
				return
			}
		}
	}()
}

// Submit queues a task without blocking.
func (w *Worker) Submit(task Task) error {
	select {
	case w.taskChan <- task:
		return nil
	default:
		return ErrWorkerFull
	}
}

func (w *Worker) Stop() {
	close(w.stop)
}
