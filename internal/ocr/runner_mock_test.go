package ocr

import (
	"context"
	"log/slog"

	"github.com/stretchr/testify/mock"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	called := m.Called(ctx, name, args)
	var out, errb []byte
	if v := called.Get(0); v != nil {
		out = v.([]byte)
	}
	if v := called.Get(1); v != nil {
		errb = v.([]byte)
	}
	return out, errb, called.Error(2)
}
