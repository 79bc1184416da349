package workflows

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"vidqa/internal/activities"
	"vidqa/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newVideoEnv() *testsuite.TestWorkflowEnvironment {
	var ts testsuite.WorkflowTestSuite
	return registerVideoWorkflow(ts.NewTestWorkflowEnvironment())
}

func registerVideoWorkflow(env *testsuite.TestWorkflowEnvironment) *testsuite.TestWorkflowEnvironment {
	env.RegisterWorkflow(VideoProcessWorkflow)
	registerActivityName(env, "AcquireTranscriptActivity", func(context.Context, activities.AcquireTranscriptInput) (activities.AcquireTranscriptOutput, error) {
		return activities.AcquireTranscriptOutput{}, nil
	})
	registerActivityName(env, "IndexTranscriptActivity", func(context.Context, activities.IndexTranscriptInput) (activities.IndexTranscriptOutput, error) {
		return activities.IndexTranscriptOutput{}, nil
	})
	registerActivityName(env, "UpdateVideoStatusActivity", func(context.Context, activities.UpdateVideoStatusInput) error { return nil })
	return env
}

func TestVideoProcessWorkflowSuccess(t *testing.T) {
	env := newVideoEnv()
	in := VideoProcessInput{VideoID: "dQw4w9WgXcQ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}

	env.OnActivity("UpdateVideoStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("AcquireTranscriptActivity", mock.Anything, activities.AcquireTranscriptInput{VideoID: in.VideoID, URL: in.URL}).
		Return(activities.AcquireTranscriptOutput{Title: "Talk", Source: models.SourceCaptions, Chars: 1200}, nil)
	env.OnActivity("IndexTranscriptActivity", mock.Anything, activities.IndexTranscriptInput{VideoID: in.VideoID}).
		Return(activities.IndexTranscriptOutput{ChunkCount: 2}, nil)

	env.ExecuteWorkflow(VideoProcessWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out VideoProcessResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, VideoProcessResult{VideoID: in.VideoID, Title: "Talk", Source: models.SourceCaptions, ChunkCount: 2}, out)

	val, err := env.QueryWorkflow(QueryGetVideoStatus)
	require.NoError(t, err)
	var status VideoStatus
	require.NoError(t, val.Get(&status))
	require.Equal(t, models.VideoStatusProcessed, status.Status)
	require.Equal(t, "done", status.Steps["index_transcript"])

	env.AssertCalled(t, "UpdateVideoStatusActivity", mock.Anything, activities.UpdateVideoStatusInput{
		VideoID:    in.VideoID,
		URL:        in.URL,
		Title:      "Talk",
		Source:     models.SourceCaptions,
		ChunkCount: 2,
		Status:     models.VideoStatusProcessed,
	})
}

func TestVideoProcessWorkflowAcquireFailureIsRecorded(t *testing.T) {
	env := newVideoEnv()
	in := VideoProcessInput{VideoID: "dQw4w9WgXcQ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}

	env.OnActivity("UpdateVideoStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("AcquireTranscriptActivity", mock.Anything, mock.Anything).
		Return(activities.AcquireTranscriptOutput{}, errors.New("download failed: yt-dlp download audio: Video unavailable")).Once()

	env.ExecuteWorkflow(VideoProcessWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Video unavailable")

	env.AssertNotCalled(t, "IndexTranscriptActivity", mock.Anything, mock.Anything)
	env.AssertCalled(t, "UpdateVideoStatusActivity", mock.Anything, mock.MatchedBy(func(in activities.UpdateVideoStatusInput) bool {
		return in.Status == models.VideoStatusFailed && in.FailReason != ""
	}))
}

func TestVideoProcessWorkflowSurvivesProcessingMarkFailure(t *testing.T) {
	var logs bytes.Buffer
	var ts testsuite.WorkflowTestSuite
	ts.SetLogger(tlog.NewStructuredLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	env := registerVideoWorkflow(ts.NewTestWorkflowEnvironment())
	in := VideoProcessInput{VideoID: "dQw4w9WgXcQ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}

	env.OnActivity("UpdateVideoStatusActivity", mock.Anything, mock.MatchedBy(func(in activities.UpdateVideoStatusInput) bool {
		return in.Status == models.VideoStatusProcessing
	})).Return(errors.New("dial tcp: connection refused"))
	env.OnActivity("UpdateVideoStatusActivity", mock.Anything, mock.MatchedBy(func(in activities.UpdateVideoStatusInput) bool {
		return in.Status == models.VideoStatusProcessed
	})).Return(nil)
	env.OnActivity("AcquireTranscriptActivity", mock.Anything, mock.Anything).
		Return(activities.AcquireTranscriptOutput{Title: "Talk", Source: models.SourceTranscription}, nil)
	env.OnActivity("IndexTranscriptActivity", mock.Anything, mock.Anything).
		Return(activities.IndexTranscriptOutput{ChunkCount: 1}, nil)

	env.ExecuteWorkflow(VideoProcessWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Contains(t, logs.String(), "mark video processing failed")
	require.Contains(t, logs.String(), "connection refused")
}

func TestWorkflowID(t *testing.T) {
	require.Equal(t, "video-abc", WorkflowID("abc"))
	require.Equal(t, 2*time.Hour, durationOrDefault(0, 7200))
	require.Equal(t, 30*time.Second, durationOrDefault(30, 7200))
}
