package hf

import (
	"context"

	"mood-journal/internal/emotion"
)

// MockClient permite tests sin llamar a Hugging Face.
type MockClient struct {
	Result emotion.Result
	Err    error
	Calls  int
}

func (m *MockClient) Classify(ctx context.Context, text string) (emotion.Result, error) {
	m.Calls++
	return m.Result, m.Err
}
