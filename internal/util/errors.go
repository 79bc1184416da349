package util

import "errors"

var (
	ErrInvalidVideoURL     = errors.New("invalid video url")
	ErrDownloadFailed      = errors.New("download failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrEmptyTranscript     = errors.New("transcript is empty")
	ErrProviderFailed      = errors.New("provider call failed")
	ErrTranscriptNotFound  = errors.New("transcript not found")

	ErrIndexNotInitialized = errors.New("similarity index not initialized")
	ErrNoVideo             = errors.New("no video has been processed")
	ErrNoQuiz              = errors.New("no quiz generated for video")
)
