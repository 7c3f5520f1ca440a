// Package run supervises the long-running pieces of a daemon: named
// goroutines under one signal-cancelled context, with error collection.
package run

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
)

// Group runs named tasks and aggregates their errors.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	errCh  chan error
	exitCh chan struct{}
	count  int
}

// NewGroup creates a Group under ctx.
func NewGroup(ctx context.Context) *Group {
	g := &Group{
		errCh:  make(chan error, 8),
		exitCh: make(chan struct{}),
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	return g
}

// HandleSignals cancels the group on SIGINT/SIGTERM. A second signal
// forces Wait to give up on tasks stuck in uninterruptible I/O, such as
// a blocking serial read.
func (g *Group) HandleSignals() *Group {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		g.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(g.exitCh)
	}()
	return g
}

// Go starts fn as a named task. The first failure cancels the group.
func (g *Group) Go(name string, fn func(context.Context) error) {
	g.count++
	go func() {
		glog.V(2).Infof("task[%s] started", name)
		err := fn(g.ctx)
		glog.V(2).Infof("task[%s] stopped: %v", name, err)
		if err != nil && err != context.Canceled {
			glog.Errorf("task[%s]: %v", name, err)
			g.cancel()
			g.errCh <- err
			return
		}
		g.errCh <- nil
	}()
}

// Wait blocks until every task stops and returns the aggregated error.
func (g *Group) Wait() error {
	var errs []string
	for i := 0; i < g.count; i++ {
		select {
		case <-g.exitCh:
			return &GroupError{Messages: []string{"forced exit"}}
		case err := <-g.errCh:
			if err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	g.cancel()
	if len(errs) == 0 {
		return nil
	}
	return &GroupError{Messages: errs}
}

// GroupError carries the failures of a Group.
type GroupError struct {
	Messages []string
}

// Error implements error.
func (e *GroupError) Error() string {
	return strings.Join(e.Messages, "; ")
}
