package studio

import (
	"errors"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
)

var (
	// ErrMissingInput is returned during validation when the selected task
	// requires a prompt or an attachment and none is present.
	ErrMissingInput = errors.New("studio: required input missing")

	// ErrMissingCredential is returned when video generation is attempted
	// without a granted video credential.
	ErrMissingCredential = errors.New("studio: video generation credential not granted")

	// ErrGenerationFailed is returned when the service reports completion
	// without a usable result.
	ErrGenerationFailed = errors.New("studio: generation completed without a usable result")

	// ErrExternalService wraps any failed call to the generative service.
	ErrExternalService = errors.New("studio: generative service request failed")

	// ErrBusy is returned when a second invocation is attempted while one is
	// already in flight. Invocations are rejected, never queued.
	ErrBusy = errors.New("studio: an invocation is already in flight")
)

// UserMessage converts a dispatcher error into the message shown to the user.
// Errors never propagate past the invocation boundary in raw form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return "Please provide the required input for this task."
	case errors.Is(err, media.ErrUnsupportedInput):
		return "This file could not be read. Please try a different file."
	case errors.Is(err, ErrMissingCredential):
		return "Video generation requires an API key. Please add one in settings."
	case errors.Is(err, ErrGenerationFailed):
		return "Generation finished without a result. Please try again."
	case errors.Is(err, ErrBusy):
		return "A generation is already running. Please wait for it to finish."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}
