package services_test

import (
	"context"
	"testing"

	"ovtracker/internal/services"
)

func TestRunIDSurvivesStageChanges(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-123")
	fetch := services.WithStage(ctx, "fetch")
	publish := services.WithStage(fetch, "publish")

	if id, ok := services.RunIDFromContext(publish); !ok || id != "run-123" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if stage, _ := services.StageFromContext(publish); stage != "publish" {
		t.Fatalf("stage = %q", stage)
	}
	if stage, _ := services.StageFromContext(fetch); stage != "fetch" {
		t.Fatalf("parent stage changed to %q", stage)
	}
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("root context should carry no stage")
	}
}

func TestBlankValuesLeaveContextUnchanged(t *testing.T) {
	ctx := services.WithStage(services.WithRunID(context.Background(), "run-1"), "parse")
	if services.WithStage(ctx, "") != ctx || services.WithRunID(ctx, "") != ctx {
		t.Fatal("blank values should return ctx as is")
	}
	if _, ok := services.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id")
	}
}
