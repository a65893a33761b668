package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) when the backing object does not exist.
var ErrNotFound = errors.New("state not found")

// State loads one raw JSON document, such as a candidate pool or a health
// summary.
type State interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestState is a simple in-memory implementation for testing
type TestState struct {
	data []byte
	err  error
}

func NewTestState(data []byte) *TestState {
	return &TestState{data: data}
}

func NewTestStateWithError(err error) *TestState {
	return &TestState{err: err}
}

func (t *TestState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
