package ai

import "context"

// Image is an inlined image ready to be sent to a vision model.
type Image struct {
	Name     string
	MIMEType string
	Base64   string
}

// DataURL renders the image as a data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64
}

// Completion is the raw model answer plus the token usage it reported.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

type Client interface {
	Describe(ctx context.Context, img Image) (Completion, error)
}

// Verifier is implemented by clients that can check their credential
// without spending tokens.
type Verifier interface {
	Verify(ctx context.Context) error
}
