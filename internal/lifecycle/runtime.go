package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Hooks adapts a pair of functions to Component; nil hooks are no-ops.
type Hooks struct {
	Name    string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h Hooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

type Runtime struct {
	components []Component
}

func NewRuntime(components ...Component) *Runtime {
	return &Runtime{components: components}
}

func (r *Runtime) Start(ctx context.Context) error {
	started := make([]Component, 0, len(r.components))
	for _, component := range r.components {
		if component == nil {
			continue
		}
		if err := component.Start(ctx); err != nil {
			_ = stopComponents(ctx, started)
			return fmt.Errorf("start component %s: %w", nameOf(component), err)
		}
		started = append(started, component)
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return stopComponents(ctx, r.components)
}

// Run starts every component, blocks until ctx is done, then stops them within stopTimeout.
func (r *Runtime) Run(ctx context.Context, stopTimeout time.Duration) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return r.Stop(stopCtx)
}

func stopComponents(ctx context.Context, components []Component) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]
		if component == nil {
			continue
		}
		if err := component.Stop(ctx); err != nil {
			log.WithFields(log.Fields{"object": "Runtime", "component": nameOf(component)}).
				WithField("error", err.Error()).Warn("component stop failed")
			stopErr = errors.Join(stopErr, fmt.Errorf("stop component %s: %w", nameOf(component), err))
		}
	}
	return stopErr
}

func nameOf(component Component) string {
	if h, ok := component.(Hooks); ok && h.Name != "" {
		return h.Name
	}
	return fmt.Sprintf("%T", component)
}
