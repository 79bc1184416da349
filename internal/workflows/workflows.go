package workflows

import (
	"time"

	"vidqa/internal/activities"
	"vidqa/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetVideoStatus = "GetVideoStatus"

// WorkflowID is the id of the processing run for a video. Starting the same
// id again while a run is open attaches to that run.
func WorkflowID(videoID string) string {
	return "video-" + videoID
}

// VideoProcessWorkflow acquires and indexes one video. Activities run once;
// external calls are not retried.
func VideoProcessWorkflow(ctx workflow.Context, input VideoProcessInput) (VideoProcessResult, error) {
	status := VideoStatus{
		VideoID:     input.VideoID,
		CurrentStep: "init",
		Status:      models.VideoStatusProcessing,
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetVideoStatus, func() (VideoStatus, error) {
		return status, nil
	}); err != nil {
		return VideoProcessResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(input.ActivityTimeoutSeconds, 7200),
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	res := VideoProcessResult{VideoID: input.VideoID}

	fail := func(err error) (VideoProcessResult, error) {
		status.Status = models.VideoStatusFailed
		status.FailReason = err.Error()
		status.Steps[status.CurrentStep] = "failed"
		dctx, _ := workflow.NewDisconnectedContext(ctx)
		_ = workflow.ExecuteActivity(dctx, "UpdateVideoStatusActivity", activities.UpdateVideoStatusInput{
			VideoID:    input.VideoID,
			URL:        input.URL,
			Status:     models.VideoStatusFailed,
			FailReason: status.FailReason,
		}).Get(dctx, nil)
		return VideoProcessResult{}, err
	}

	// A missed processing mark is repaired by the final status update.
	if err := workflow.ExecuteActivity(ctx, "UpdateVideoStatusActivity", activities.UpdateVideoStatusInput{
		VideoID: input.VideoID,
		URL:     input.URL,
		Status:  models.VideoStatusProcessing,
	}).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("mark video processing failed", "video_id", input.VideoID, "error", err)
	}

	status.CurrentStep = "acquire_transcript"
	status.Steps[status.CurrentStep] = "processing"
	var acquired activities.AcquireTranscriptOutput
	if err := workflow.ExecuteActivity(ctx, "AcquireTranscriptActivity", activities.AcquireTranscriptInput{VideoID: input.VideoID, URL: input.URL}).Get(ctx, &acquired); err != nil {
		return fail(err)
	}
	res.Title = acquired.Title
	res.Source = acquired.Source
	res.Cached = acquired.Cached
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "index_transcript"
	status.Steps[status.CurrentStep] = "processing"
	var indexed activities.IndexTranscriptOutput
	if err := workflow.ExecuteActivity(ctx, "IndexTranscriptActivity", activities.IndexTranscriptInput{VideoID: input.VideoID}).Get(ctx, &indexed); err != nil {
		return fail(err)
	}
	res.ChunkCount = indexed.ChunkCount
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "mark_processed"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpdateVideoStatusActivity", activities.UpdateVideoStatusInput{
		VideoID:    input.VideoID,
		URL:        input.URL,
		Title:      acquired.Title,
		Source:     acquired.Source,
		ChunkCount: indexed.ChunkCount,
		Status:     models.VideoStatusProcessed,
	}).Get(ctx, nil); err != nil {
		return fail(err)
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = models.VideoStatusProcessed
	return res, nil
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
