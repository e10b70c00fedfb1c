package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

func newTestDirectory(o simulate.Outcomes) *Directory {
	return NewDirectory(Options{Outcomes: o, Sleeper: simulate.NoSleep{}})
}

func TestServerSideUserPicksByDraw(t *testing.T) {
	t.Parallel()
	cases := []struct {
		draw float64
		want string
	}{
		{0.0, "John Doe"},
		{0.3, "Jane Smith"},
		{0.6, "Donald McDuck"},
		{0.8, ""},
		{0.999, ""},
	}
	for _, tc := range cases {
		user, err := newTestDirectory(simulate.Fixed(tc.draw)).ServerSideUser(context.Background())
		require.NoError(t, err)
		if tc.want == "" {
			require.Nil(t, user, "draw %v", tc.draw)
			continue
		}
		require.NotNil(t, user, "draw %v", tc.draw)
		require.Equal(t, tc.want, user.Name)
	}
}

func TestLoginMatchesEmailCaseInsensitively(t *testing.T) {
	t.Parallel()
	dir := newTestDirectory(simulate.Fixed(0))
	user, err := dir.Login(context.Background(), " Jane.Smith@Example.com ", "anything")
	require.NoError(t, err)
	require.Equal(t, 2, user.ID)

	_, err = dir.Login(context.Background(), "nobody@example.com", "pw")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	require.Equal(t, ErrUserNotFoundMessage, typed.Message())
}

func TestLogoutHonoursCancellation(t *testing.T) {
	t.Parallel()
	dir := newTestDirectory(simulate.Fixed(0))
	require.NoError(t, dir.Logout(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, dir.Logout(ctx), context.Canceled)
}
