package authsvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zedts/backend-digital-library/model"
	"github.com/Zedts/backend-digital-library/util/hash"
)

type usersMock struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *usersMock) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.byEmailFn(ctx, email)
}

func TestLogin_Success(t *testing.T) {
	hashed, err := hash.HashPassword("s3cret")
	require.NoError(t, err)

	s := New(&usersMock{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			require.Equal(t, "ani@example.com", email)
			return &model.User{ID: 3, Email: email, PasswordHash: hashed, Role: "admin"}, nil
		},
	})

	u, token, err := s.Login(context.Background(), model.LoginReq{Email: "ani@example.com", Password: "s3cret"}, "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(3), u.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed, _ := hash.HashPassword("right")
	s := New(&usersMock{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 3, PasswordHash: hashed}, nil
		},
	})
	_, _, err := s.Login(context.Background(), model.LoginReq{Email: "a@b.c", Password: "wrong"}, "test-secret")
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := New(&usersMock{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, sql.ErrNoRows
		},
	})
	_, _, err := s.Login(context.Background(), model.LoginReq{Email: "nobody@b.c", Password: "x"}, "test-secret")
	require.ErrorIs(t, err, ErrInvalidCreds)
}
