package services

import "context"

type runInfoKey struct{}

// runInfo is the per-invocation identity carried through a run.
type runInfo struct {
	id    string
	stage string
}

func infoFrom(ctx context.Context) runInfo {
	if ctx == nil {
		return runInfo{}
	}
	info, _ := ctx.Value(runInfoKey{}).(runInfo)
	return info
}

// WithRunID attaches the run identifier. An empty id leaves ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	info := infoFrom(ctx)
	info.id = id
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunIDFromContext returns the run identifier, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	info := infoFrom(ctx)
	return info.id, info.id != ""
}

// WithStage names the pipeline step (fetch, parse, resolve, publish) running
// under ctx. The run identifier is kept.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	info := infoFrom(ctx)
	info.stage = stage
	return context.WithValue(ctx, runInfoKey{}, info)
}

// StageFromContext returns the pipeline step, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	info := infoFrom(ctx)
	return info.stage, info.stage != ""
}
