// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the openid collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/holoid/internal/auth"
	"github.com/holomush/holoid/internal/openid"
)

// MockProvider is a mock implementation of openid.Provider.
type MockProvider struct {
	mock.Mock
}

// NewMockProvider creates a MockProvider whose expectations are asserted
// when the test finishes.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Authenticate provides a mock function.
func (m *MockProvider) Authenticate(ctx context.Context, req openid.Request, identifier, returnTo string) (openid.Response, error) {
	ret := m.Called(ctx, req, identifier, returnTo)
	return ret.Get(0).(openid.Response), ret.Error(1)
}

// CleanupSession provides a mock function.
func (m *MockProvider) CleanupSession(ctx context.Context, req openid.Request) error {
	ret := m.Called(ctx, req)
	return ret.Error(0)
}

// MockPrincipalCreator is a mock implementation of openid.PrincipalCreator.
type MockPrincipalCreator struct {
	mock.Mock
}

// NewMockPrincipalCreator creates a MockPrincipalCreator whose expectations
// are asserted when the test finishes.
func NewMockPrincipalCreator(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPrincipalCreator {
	m := &MockPrincipalCreator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockPrincipalCreator) Create(ctx context.Context, player *auth.Player) error {
	ret := m.Called(ctx, player)
	return ret.Error(0)
}

var (
	_ openid.Provider         = (*MockProvider)(nil)
	_ openid.PrincipalCreator = (*MockPrincipalCreator)(nil)
)
