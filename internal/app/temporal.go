package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidqa/internal/media"
	"vidqa/internal/pipeline"
	"vidqa/internal/util"
	"vidqa/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

// WorkflowStarter is the part of the Temporal client the processor uses.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
}

// TemporalProcessor hands processing to the worker and loads the result
// from the shared database once the workflow completes.
type TemporalProcessor struct {
	client    WorkflowStarter
	videos    *pipeline.Service
	taskQueue string
	timeout   int
	log       *slog.Logger
}

func NewTemporalProcessor(c WorkflowStarter, videos *pipeline.Service, taskQueue string, activityTimeoutSecs int, log *slog.Logger) *TemporalProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &TemporalProcessor{client: c, videos: videos, taskQueue: taskQueue, timeout: activityTimeoutSecs, log: log}
}

func (p *TemporalProcessor) Process(ctx context.Context, rawURL string) (pipeline.Result, error) {
	videoID, err := media.ParseVideoID(rawURL)
	if err != nil {
		return pipeline.Result{}, err
	}
	if rec, ok := p.videos.Registry().Get(videoID); ok && rec.Indexed() {
		return p.videos.Result(ctx, videoID, true)
	}
	rec, err := p.videos.Hydrate(ctx, videoID)
	switch {
	case err == nil && rec.Indexed():
		p.videos.Registry().Put(rec)
		return p.videos.Result(ctx, videoID, true)
	case err != nil && !errors.Is(err, util.ErrTranscriptNotFound):
		return pipeline.Result{}, err
	}

	// A run already open under the same id is attached to, not duplicated.
	run, err := p.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       workflows.WorkflowID(videoID),
		TaskQueue:                                p.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: false,
	}, workflows.VideoProcessWorkflow, workflows.VideoProcessInput{
		VideoID:                videoID,
		URL:                    media.CanonicalURL(videoID),
		ActivityTimeoutSeconds: p.timeout,
	})
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("start workflow: %w", err)
	}
	p.log.Info("video workflow started",
		slog.String("video_id", videoID),
		slog.String("workflow_id", run.GetID()),
		slog.String("run_id", run.GetRunID()),
	)

	var out workflows.VideoProcessResult
	if err := run.Get(ctx, &out); err != nil {
		return pipeline.Result{}, restoreSentinel(err)
	}
	rec, err = p.videos.Hydrate(ctx, videoID)
	if err != nil {
		return pipeline.Result{}, err
	}
	p.videos.Registry().Put(rec)
	return p.videos.Result(ctx, videoID, out.Cached)
}

var workflowSentinels = []error{
	util.ErrInvalidVideoURL,
	util.ErrDownloadFailed,
	util.ErrEmptyTranscript,
	util.ErrTranscriptionFailed,
	util.ErrProviderFailed,
	util.ErrTranscriptNotFound,
}

// restoreSentinel re-attaches the domain error a workflow failure carried.
// Activity errors cross the Temporal boundary as text only.
func restoreSentinel(err error) error {
	msg := err.Error()
	for _, s := range workflowSentinels {
		if strings.Contains(msg, s.Error()) {
			return fmt.Errorf("%w: %w", s, err)
		}
	}
	return err
}
