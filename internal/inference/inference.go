// Package inference is the boundary to the multimodal model service.
package inference

import "context"

// Image is an inline image payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// Sampling holds the generation parameters sent with each call.
type Sampling struct {
	Temperature float64
	TopP        float64
}

// Request combines one text instruction with one image.
type Request struct {
	Prompt   string
	Image    Image
	Sampling Sampling
}

// Generator returns the model's free-text answer for a request. Failures to
// reach the service are returned as *apperr.TransportError.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
