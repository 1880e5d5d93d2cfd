// Package studio implements the creative-workspace task dispatcher.
//
// A dispatcher invocation walks a fixed state machine:
//
//	Idle -> Validating -> Encoding -> Requesting -> (Polling)* -> Done | Failed
//
// Six task kinds exist. Each kind declares its required inputs (prompt,
// attachment, or both absent requirements) and owns one handler that builds
// the provider request and normalizes the response into a tagged [Content]
// value. The handler table is populated at construction and covers every
// kind; a kind outside the table is a caller bug.
package studio

import (
	"fmt"
	"slices"
)

// TaskKind identifies one of the six generative operations.
type TaskKind string

const (
	// TaskGenerateSummary summarizes a free-text prompt into a summary plus
	// action items.
	TaskGenerateSummary TaskKind = "generate-summary"

	// TaskAnalyzeDocument extracts and summarizes the key points of an
	// attached document.
	TaskAnalyzeDocument TaskKind = "analyze-document"

	// TaskAnalyzeImage describes an attached image in detail.
	TaskAnalyzeImage TaskKind = "analyze-image"

	// TaskSummarizeVideo summarizes an attached video from sampled frames.
	TaskSummarizeVideo TaskKind = "summarize-video"

	// TaskGenerateImage generates an image from a prompt.
	TaskGenerateImage TaskKind = "generate-image"

	// TaskGenerateVideo generates a video from a prompt via a long-running
	// polled operation. Requires a separately granted credential.
	TaskGenerateVideo TaskKind = "generate-video"
)

// taskLabels maps each kind to its human-readable label.
var taskLabels = map[TaskKind]string{
	TaskGenerateSummary: "Generate Summary",
	TaskAnalyzeDocument: "Analyze Document",
	TaskAnalyzeImage:    "Analyze Image",
	TaskSummarizeVideo:  "Summarize Video",
	TaskGenerateImage:   "Generate Image",
	TaskGenerateVideo:   "Generate Video",
}

// Label returns the kind's display name, or the raw identifier for an
// unknown kind.
func (k TaskKind) Label() string {
	if label, ok := taskLabels[k]; ok {
		return label
	}
	return string(k)
}

// ParseTaskKind converts a wire identifier into a TaskKind.
func ParseTaskKind(s string) (TaskKind, error) {
	k := TaskKind(s)
	if _, ok := taskLabels[k]; !ok {
		return "", fmt.Errorf("unknown task kind %q", s)
	}
	return k, nil
}

// Kinds returns all task kinds in stable order.
func Kinds() []TaskKind {
	kinds := make([]TaskKind, 0, len(taskLabels))
	for k := range taskLabels {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// ContentKind tags the payload type of a generated result.
type ContentKind string

const (
	// ContentText marks plain prose payloads.
	ContentText ContentKind = "text"

	// ContentImage marks a displayable image resource reference.
	ContentImage ContentKind = "image"

	// ContentVideo marks a displayable video resource reference.
	ContentVideo ContentKind = "video"
)

// Content is the normalized result of one successful invocation. Text
// payloads carry prose; image and video payloads carry a displayable resource
// reference (a data URI or a blob reference).
type Content struct {
	Kind    ContentKind `json:"kind"`
	Payload string      `json:"payload"`
}

// Phase is the dispatcher's position in the per-invocation state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseEncoding   Phase = "encoding"
	PhaseRequesting Phase = "requesting"
	PhasePolling    Phase = "polling"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)
