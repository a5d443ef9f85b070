// Package observability wraps the Langfuse client used to trace LLM
// generations. Tracing is optional: with Langfuse unconfigured every call
// becomes a no-op, so call sites never branch on availability.
package observability

import (
	"context"
	"time"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
	"github.com/tunetools/tunetools-api/internal/config"
	"github.com/tunetools/tunetools-api/internal/logger"
)

// LangfuseClient wraps the SDK client behind an enabled flag
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
	ctx     context.Context
}

var globalClient *LangfuseClient

// InitializeLangfuse sets up the global client. The SDK reads its keys from
// the LANGFUSE_* environment variables loaded in main.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		logger.Info("Langfuse not configured, LLM tracing disabled", nil)
		globalClient = &LangfuseClient{enabled: false, ctx: ctx}
		return globalClient
	}

	globalClient = &LangfuseClient{
		client:  langfuse.New(ctx),
		enabled: true,
		ctx:     ctx,
	}
	logger.Info("Langfuse initialized", logger.Fields{"host": cfg.LangfuseHost})
	return globalClient
}

// GetClient returns the global client, disabled when never initialized
func GetClient() *LangfuseClient {
	if globalClient == nil {
		return &LangfuseClient{enabled: false, ctx: context.Background()}
	}
	return globalClient
}

func (c *LangfuseClient) IsEnabled() bool {
	return c.enabled && c.client != nil
}

// StartTrace opens a trace; on any SDK error a disabled trace is returned so
// the pipeline keeps running untraced.
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{enabled: false, ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		logger.Warn("Failed to create Langfuse trace", logger.Fields{"error": err.Error()})
		return &Trace{enabled: false, ctx: ctx}
	}

	return &Trace{trace: trace, enabled: true, ctx: ctx, client: c.client}
}

// Trace is one traced pipeline run
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Generation opens a generation span within the trace
func (t *Trace) Generation(name string, metadata map[string]interface{}) *Generation {
	if !t.enabled {
		return &Generation{enabled: false}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		StartTime: &now,
		Metadata:  metadata,
	}, nil)
	if err != nil {
		logger.Warn("Failed to create Langfuse generation", logger.Fields{"error": err.Error()})
		return &Generation{enabled: false}
	}

	return &Generation{generation: gen, enabled: true, client: t.client}
}

// Finish flushes the trace's batched events
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation is one LLM call span
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

func (g *Generation) Input(input interface{}) {
	if g.enabled && g.generation != nil {
		g.generation.Input = input
	}
}

func (g *Generation) Output(output interface{}) {
	if g.enabled && g.generation != nil {
		g.generation.Output = output
	}
}

// Model records which provider model produced the output
func (g *Generation) Model(name string) {
	if g.enabled && g.generation != nil {
		g.generation.Model = name
	}
}

func (g *Generation) Metadata(metadata map[string]interface{}) {
	if !g.enabled || g.generation == nil {
		return
	}
	if g.generation.Metadata == nil {
		g.generation.Metadata = make(map[string]interface{})
	}
	if md, ok := g.generation.Metadata.(map[string]interface{}); ok {
		for k, v := range metadata {
			md[k] = v
		}
	} else {
		g.generation.Metadata = metadata
	}
}

func (g *Generation) SetLevel(level string) {
	if g.enabled && g.generation != nil {
		g.generation.Level = model.ObservationLevel(level)
	}
}

// Finish stamps the end time and queues the span for sending
func (g *Generation) Finish() {
	if g.enabled && g.generation != nil && g.client != nil {
		now := time.Now()
		g.generation.EndTime = &now
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			logger.Warn("Failed to end Langfuse generation", logger.Fields{"error": err.Error()})
		}
	}
}
