// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth repository interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holoid/internal/auth"
)

// MockPlayerRepository is a mock implementation of auth.PlayerRepository.
type MockPlayerRepository struct {
	mock.Mock
}

// NewMockPlayerRepository creates a MockPlayerRepository whose expectations
// are asserted when the test finishes.
func NewMockPlayerRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPlayerRepository {
	m := &MockPlayerRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func playerOrNil(v any) *auth.Player {
	if v == nil {
		return nil
	}
	return v.(*auth.Player)
}

// Create provides a mock function.
func (m *MockPlayerRepository) Create(ctx context.Context, player *auth.Player) error {
	ret := m.Called(ctx, player)
	if fn, ok := ret.Get(0).(func(context.Context, *auth.Player) error); ok {
		return fn(ctx, player)
	}
	return ret.Error(0)
}

// GetByID provides a mock function.
func (m *MockPlayerRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Player, error) {
	ret := m.Called(ctx, id)
	return playerOrNil(ret.Get(0)), ret.Error(1)
}

// GetByUsername provides a mock function.
func (m *MockPlayerRepository) GetByUsername(ctx context.Context, username string) (*auth.Player, error) {
	ret := m.Called(ctx, username)
	return playerOrNil(ret.Get(0)), ret.Error(1)
}

// GetByOpenIDIdentifier provides a mock function.
func (m *MockPlayerRepository) GetByOpenIDIdentifier(ctx context.Context, identifier string) (*auth.Player, error) {
	ret := m.Called(ctx, identifier)
	return playerOrNil(ret.Get(0)), ret.Error(1)
}

// GetByLinkedOpenIDIdentifier provides a mock function.
func (m *MockPlayerRepository) GetByLinkedOpenIDIdentifier(ctx context.Context, identifier string) (*auth.Player, error) {
	ret := m.Called(ctx, identifier)
	return playerOrNil(ret.Get(0)), ret.Error(1)
}

// LinkOpenIDIdentifier provides a mock function.
func (m *MockPlayerRepository) LinkOpenIDIdentifier(ctx context.Context, playerID ulid.ULID, identifier string) error {
	ret := m.Called(ctx, playerID, identifier)
	return ret.Error(0)
}

// Update provides a mock function.
func (m *MockPlayerRepository) Update(ctx context.Context, player *auth.Player) error {
	ret := m.Called(ctx, player)
	return ret.Error(0)
}

// Delete provides a mock function.
func (m *MockPlayerRepository) Delete(ctx context.Context, id ulid.ULID) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}

var _ auth.PlayerRepository = (*MockPlayerRepository)(nil)
