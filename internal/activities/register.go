package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.AcquireTranscriptActivity)
	w.RegisterActivity(a.IndexTranscriptActivity)
	w.RegisterActivity(a.UpdateVideoStatusActivity)
}
