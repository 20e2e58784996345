// internal/simulation/mocks_test.go
package simulation

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/ikarm/internal/render"
)

// mockRenderer implements render.Renderer and records every frame.
type mockRenderer struct {
	mock.Mock
	mu     sync.Mutex
	frames []render.Frame
}

func (m *mockRenderer) RenderFrame(ctx context.Context, frame render.Frame) error {
	m.mu.Lock()
	m.frames = append(m.frames, frame)
	m.mu.Unlock()
	args := m.Called(ctx, frame)
	return args.Error(0)
}

func (m *mockRenderer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockRenderer) Frames() []render.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]render.Frame, len(m.frames))
	copy(out, m.frames)
	return out
}
