package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserSaver struct {
	saved []*domain.User
	err   error
}

func (f *fakeUserSaver) SaveUser(_ context.Context, user *domain.User) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, user)
	return nil
}

func seedUser(id string) *domain.User {
	return &domain.User{
		ID:    id,
		Email: "someone@example.com",
		Credential: domain.Credential{
			AccessToken:  "ya29.access",
			RefreshToken: "1//refresh",
			Expiry:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestScanner_Seed(t *testing.T) {
	users := &fakeUserSaver{}
	s := &Scanner{users: users}

	require.NoError(t, s.Seed(context.Background(), seedUser("u1")))

	require.Len(t, users.saved, 1)
	assert.Equal(t, "u1", users.saved[0].ID)
	assert.Equal(t, "1//refresh", users.saved[0].Credential.RefreshToken)
}

func TestScanner_SeedRejects(t *testing.T) {
	noRefresh := seedUser("u1")
	noRefresh.Credential.RefreshToken = ""

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{"nil user", nil, domain.ErrInvalidUserID},
		{"empty id", seedUser(""), domain.ErrInvalidUserID},
		{"id with separator", seedUser("u1:x"), domain.ErrInvalidUserID},
		{"missing refresh token", noRefresh, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserSaver{}
			s := &Scanner{users: users}

			err := s.Seed(context.Background(), tt.user)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, users.saved)
		})
	}
}

func TestScanner_SeedStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	s := &Scanner{users: &fakeUserSaver{err: boom}}

	err := s.Seed(context.Background(), seedUser("u1"))

	assert.ErrorIs(t, err, boom)
}
