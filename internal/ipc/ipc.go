// Package ipc provides the command channel between the client layer and the
// backend: named commands with a keyed argument bundle and a typed result.
//
// Arguments and results always cross the channel JSON-encoded, including with
// the in-process Router, so handlers and callers never share memory.
package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/stackline/internal/log"
)

// Invoker invokes a named backend command.
type Invoker interface {
	// Invoke runs command with args and decodes its result into result.
	// result may be nil when the caller does not need the response.
	Invoke(ctx context.Context, command string, args any, result any) error
}

// Handler serves one command. args holds the JSON-encoded argument bundle.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Call invokes command and returns its decoded result.
func Call[T any](ctx context.Context, inv Invoker, command string, args any) (T, error) {
	var out T
	if err := inv.Invoke(ctx, command, args, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Decode unmarshals a handler's argument bundle into T.
func Decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("invalid arguments: %w", err)
	}
	return v, nil
}

// Router is an in-process Invoker that dispatches commands to registered
// handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	tracer   trace.Tracer
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
		tracer:   otel.Tracer("github.com/zjrosen/stackline/internal/ipc"),
	}
}

// Register binds a handler to a command name, replacing any previous one.
func (r *Router) Register(command string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// Commands returns the registered command names, sorted.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke implements Invoker.
func (r *Router) Invoke(ctx context.Context, command string, args any, result any) (err error) {
	ctx, span := r.tracer.Start(ctx, "ipc."+command, trace.WithAttributes(attribute.String("ipc.command", command)))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		log.Debug(log.CatIPC, "Invoked command", "command", command, "duration", time.Since(start), "ok", err == nil)
	}()

	r.mu.RLock()
	h, ok := r.handlers[command]
	r.mu.RUnlock()
	if !ok {
		return &UnknownCommandError{Command: command}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments for %s: %w", command, err)
	}

	out, err := h(ctx, raw)
	if err != nil {
		return &CommandError{Command: command, Err: err}
	}

	if result == nil {
		return nil
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode result of %s: %w", command, err)
	}
	if err := json.Unmarshal(encoded, result); err != nil {
		return fmt.Errorf("failed to decode result of %s: %w", command, err)
	}
	return nil
}
