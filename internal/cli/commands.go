package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"vidqa/internal/app"
	"vidqa/internal/generators"
	"vidqa/internal/models"
	"vidqa/internal/pipeline"
	"vidqa/internal/transcripts"
	"vidqa/internal/util"

	"github.com/spf13/cobra"
)

func newProcessCmd(o *options) *cobra.Command {
	var (
		out  string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "process <video-url>",
		Short: "Transcribe and index a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withVideo(cmd, args[0], func(ctx context.Context, a *app.App, res pipeline.Result) error {
				if save || out != "" {
					if out == "" {
						name := res.Title
						if strings.TrimSpace(name) == "" {
							name = res.VideoID
						}
						out = util.SanitizeFilename(name) + ".txt"
					}
					if err := util.WriteTextAtomic(out, res.Transcript); err != nil {
						return fmt.Errorf("write transcript: %w", err)
					}
				}
				return o.print(cmd.OutOrStdout(), res, func(w io.Writer) {
					msg := "Video processing complete"
					if res.AlreadyProcessed {
						msg = "Video already processed"
					}
					fmt.Fprintf(w, "%s: %s (%s)\n", msg, res.Title, res.VideoID)
					fmt.Fprintf(w, "source=%s chunks=%d\n", res.Source, res.ChunkCount)
					if out != "" {
						fmt.Fprintf(w, "transcript written to %s\n", out)
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the transcript to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Write the transcript to <title>.txt")
	return cmd
}

func newAskCmd(o *options) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "ask <video-url> <question...>",
		Short: "Ask a question answered from the video transcript",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args[1:], " ")
			return o.withVideo(cmd, args[0], func(ctx context.Context, a *app.App, res pipeline.Result) error {
				if k <= 0 {
					k = a.Config.RetrieveK
				}
				chunks, err := a.Pipeline.Retrieve(ctx, res.VideoID, question, k)
				if err != nil {
					return err
				}
				ans, err := a.Generators.Answer(ctx, generators.AnswerInput{
					VideoID:  res.VideoID,
					Title:    res.Title,
					Question: question,
					Chunks:   chunks,
				})
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), ans, func(w io.Writer) {
					fmt.Fprintln(w, ans.Text)
				})
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "Number of transcript chunks to retrieve")
	return cmd
}

func newSummaryCmd(o *options) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "summary <video-url>",
		Short: "Summarize a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withVideo(cmd, args[0], func(ctx context.Context, a *app.App, res pipeline.Result) error {
				sum, err := a.Generators.Summarize(ctx, generators.SummaryInput{
					VideoID:    res.VideoID,
					Title:      res.Title,
					Transcript: res.Transcript,
					Refresh:    refresh,
				})
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), sum, func(w io.Writer) {
					fmt.Fprintln(w, sum.Text)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore a cached summary")
	return cmd
}

func newQuizCmd(o *options) *cobra.Command {
	var (
		refresh bool
		answers []string
	)
	cmd := &cobra.Command{
		Use:   "quiz <video-url>",
		Short: "Generate a multiple-choice quiz, optionally scoring answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withVideo(cmd, args[0], func(ctx context.Context, a *app.App, res pipeline.Result) error {
				q, err := a.Generators.Quiz(ctx, generators.QuizInput{
					VideoID:    res.VideoID,
					Title:      res.Title,
					Transcript: res.Transcript,
					Refresh:    refresh,
				})
				if err != nil {
					return err
				}
				if q.Error != "" {
					return o.print(cmd.OutOrStdout(), q, func(w io.Writer) {
						fmt.Fprintf(w, "quiz generation failed: %s\n", q.Error)
					})
				}
				if len(answers) == 0 {
					return o.print(cmd.OutOrStdout(), q, func(w io.Writer) { writeQuiz(w, q) })
				}
				score, err := a.Generators.SubmitAnswers(ctx, res.VideoID, answers)
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), score, func(w io.Writer) { writeScore(w, score) })
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore a cached quiz")
	cmd.Flags().StringSliceVarP(&answers, "answers", "a", nil, "Answers to score, in question order (option text or letter)")
	return cmd
}

func newVideosCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List processed videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			a, err := o.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var videos []models.Video
			if a.DB != nil {
				videos, err = a.Pipeline.Videos(ctx)
			} else {
				// Without a database the transcript directory is the record
				// of what has been processed.
				var stored []transcripts.Transcript
				stored, err = transcripts.NewStore(a.Config.TranscriptDir).List(ctx)
				videos = videosFromTranscripts(stored)
			}
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), videos, func(w io.Writer) {
				if len(videos) == 0 {
					fmt.Fprintln(w, "no videos processed yet")
					return
				}
				for _, v := range videos {
					fmt.Fprintf(w, "%s\t%s\t%s\n", v.VideoID, v.Status, v.Title)
				}
			})
		},
	}
}

// withVideo builds the services, processes url and hands the result to fn.
func (o *options) withVideo(cmd *cobra.Command, url string, fn func(context.Context, *app.App, pipeline.Result) error) error {
	ctx := commandContext(cmd)
	a, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var sp *spinner
	if !o.quiet {
		sp = startSpinner(cmd.ErrOrStderr(), "processing video")
	}
	res, err := a.Pipeline.Process(ctx, url)
	if sp != nil {
		sp.stop()
	}
	if err != nil {
		return err
	}
	return fn(ctx, a, res)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func videosFromTranscripts(ts []transcripts.Transcript) []models.Video {
	out := make([]models.Video, 0, len(ts))
	for _, t := range ts {
		out = append(out, models.Video{
			VideoID:   t.VideoID,
			URL:       t.URL,
			Title:     t.Title,
			Source:    t.Source,
			Status:    models.VideoStatusProcessed,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.CreatedAt,
		})
	}
	return out
}

func writeQuiz(w io.Writer, q models.Quiz) {
	for i, it := range q.Items {
		fmt.Fprintf(w, "%d. %s\n", i+1, it.Question)
		for j, opt := range it.Options {
			fmt.Fprintf(w, "   %c) %s\n", 'A'+j, opt)
		}
	}
}

func writeScore(w io.Writer, s models.ScoreResult) {
	for i, r := range s.Results {
		mark := "wrong"
		if r.Correct {
			mark = "correct"
		}
		fmt.Fprintf(w, "%d. %s: %s (answer: %s)\n", i+1, mark, r.Selected, r.CorrectAnswer)
	}
	fmt.Fprintf(w, "score: %d/%d\n", s.Score, s.Total)
}

// Main runs the CLI and returns the process exit code.
func Main(ctx context.Context, args []string) int {
	root := NewRootCmd(nil)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
