// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holoid/internal/auth"
)

// MockWebSessionRepository is a mock implementation of auth.WebSessionRepository.
type MockWebSessionRepository struct {
	mock.Mock
}

// NewMockWebSessionRepository creates a MockWebSessionRepository whose
// expectations are asserted when the test finishes.
func NewMockWebSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockWebSessionRepository {
	m := &MockWebSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockWebSessionRepository) Create(ctx context.Context, session *auth.WebSession) error {
	ret := m.Called(ctx, session)
	return ret.Error(0)
}

// GetByTokenHash provides a mock function.
func (m *MockWebSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.WebSession, error) {
	ret := m.Called(ctx, tokenHash)
	var session *auth.WebSession
	if v := ret.Get(0); v != nil {
		session = v.(*auth.WebSession)
	}
	return session, ret.Error(1)
}

// ListByPlayer provides a mock function.
func (m *MockWebSessionRepository) ListByPlayer(ctx context.Context, playerID ulid.ULID, t time.Time) ([]*auth.WebSession, error) {
	ret := m.Called(ctx, playerID, t)
	var sessions []*auth.WebSession
	if v := ret.Get(0); v != nil {
		sessions = v.([]*auth.WebSession)
	}
	return sessions, ret.Error(1)
}

// Touch provides a mock function.
func (m *MockWebSessionRepository) Touch(ctx context.Context, id ulid.ULID, t time.Time) error {
	ret := m.Called(ctx, id, t)
	return ret.Error(0)
}

// Delete provides a mock function.
func (m *MockWebSessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}

// DeleteByPlayer provides a mock function.
func (m *MockWebSessionRepository) DeleteByPlayer(ctx context.Context, playerID ulid.ULID) (int64, error) {
	ret := m.Called(ctx, playerID)
	return ret.Get(0).(int64), ret.Error(1)
}

// DeleteExpired provides a mock function.
func (m *MockWebSessionRepository) DeleteExpired(ctx context.Context, t time.Time) (int64, error) {
	ret := m.Called(ctx, t)
	return ret.Get(0).(int64), ret.Error(1)
}

var _ auth.WebSessionRepository = (*MockWebSessionRepository)(nil)
