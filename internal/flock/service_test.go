package flock_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/flock/internal/flock"
	"github.com/jdholdren/flock/internal/memstore"
)

// clock hands out strictly increasing instants, one second apart.
type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T) (*flock.Service, *clock) {
	t.Helper()

	c := &clock{t: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	return flock.NewService(memstore.New(), flock.WithClock(c.now)), c
}

func mustCreateUser(t *testing.T, svc *flock.Service, username string) flock.User {
	t.Helper()

	usr, err := svc.CreateUser(context.Background(), username, "Display "+username)
	require.NoError(t, err)
	return usr
}

func contents(posts []flock.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Content)
	}
	return out
}

func TestTimeline_IncludesFollowedAndOwnPosts(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)

	_, err := svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, u2.ID, "hello")
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, u1.ID, "hi")
	require.NoError(t, err)

	tl, err := svc.Timeline(ctx, u1.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "hello"}, contents(tl.Items))
	assert.Equal(t, 2, tl.Total)

	// u2 does not follow u1, so only sees their own post.
	tl, err = svc.Timeline(ctx, u2.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, contents(tl.Items))
}

func TestTimeline_LastPage(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u      = mustCreateUser(t, svc, "prolific")
	)
	for i := range 25 {
		_, err := svc.CreatePost(ctx, u.ID, fmt.Sprintf("post %d", i))
		require.NoError(t, err)
	}

	tl, err := svc.Timeline(ctx, u.ID, flock.NewPage(3, 10))
	require.NoError(t, err)

	assert.Equal(t, []string{"post 4", "post 3", "post 2", "post 1", "post 0"}, contents(tl.Items))
	assert.Equal(t, 25, tl.Total)
	assert.Equal(t, 3, tl.PageCount)
	assert.False(t, tl.HasNextPage)
	assert.True(t, tl.HasPrevPage)
}

func TestTimeline_SameInstantOrdersBySeq(t *testing.T) {
	var (
		ctx   = context.Background()
		fixed = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		svc   = flock.NewService(memstore.New(), flock.WithClock(func() time.Time { return fixed }))
	)

	u1, err := svc.CreateUser(ctx, "user_one", "User One")
	require.NoError(t, err)
	u2, err := svc.CreateUser(ctx, "user_two", "User Two")
	require.NoError(t, err)
	_, err = svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	for _, p := range []struct{ author, content string }{
		{u1.ID, "a"}, {u2.ID, "b"}, {u1.ID, "c"}, {u2.ID, "d"},
	} {
		_, err := svc.CreatePost(ctx, p.author, p.content)
		require.NoError(t, err)
	}

	tl, err := svc.Timeline(ctx, u1.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, contents(tl.Items))

	// Same state, same answer.
	again, err := svc.Timeline(ctx, u1.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, tl, again)
}

func TestTimeline_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Timeline(context.Background(), "nobody-usr", flock.NewPage(1, 10))
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func TestTimeline_DropsUnfollowedPosts(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)

	f, err := svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, u2.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFollow(ctx, f.ID))

	tl, err := svc.Timeline(ctx, u1.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, tl.Items)
}

func TestCreateUser(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
	)

	usr, err := svc.CreateUser(ctx, "alice", "  Alice  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", usr.DisplayName)

	_, err = svc.CreateUser(ctx, "alice", "Alice Again")
	require.ErrorIs(t, err, flock.ErrConflict)

	_, err = svc.CreateUser(ctx, "a!", "Alice")
	require.ErrorIs(t, err, flock.ErrValidation)
}

func TestUsernameAvailable(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
	)
	mustCreateUser(t, svc, "alice")

	tests := []struct {
		username string
		want     bool
	}{
		{"alice", false},
		{"bob", true},
		{"x", false},
		{"bad name", false},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			got, err := svc.UsernameAvailable(ctx, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUsers_Paginates(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		want   []string
	)
	for i := range 12 {
		want = append(want, mustCreateUser(t, svc, fmt.Sprintf("user_%02d", i)).Username)
	}

	pg, err := svc.Users(ctx, flock.NewPage(2, 5))
	require.NoError(t, err)

	var got []string
	for _, u := range pg.Items {
		got = append(got, u.Username)
	}
	assert.Equal(t, want[5:10], got)
	assert.Equal(t, 12, pg.Total)
	assert.Equal(t, 3, pg.PageCount)
	assert.True(t, pg.HasNextPage)
	assert.True(t, pg.HasPrevPage)

	pg, err = svc.Users(ctx, flock.NewPage(9, 5))
	require.NoError(t, err)
	assert.Empty(t, pg.Items)
	assert.False(t, pg.HasNextPage)

	for _, number := range []int{1844674407370955163, 922337203685477582, math.MaxInt} {
		pg, err = svc.Users(ctx, flock.NewPage(number, 5))
		require.NoError(t, err)
		assert.Empty(t, pg.Items, "page %d", number)
		assert.Equal(t, 12, pg.Total)
		assert.False(t, pg.HasNextPage)
	}
}

func TestCreatePost(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u      = mustCreateUser(t, svc, "alice")
	)

	_, err := svc.CreatePost(ctx, "nobody-usr", "hello")
	require.ErrorIs(t, err, flock.ErrNotFound)

	_, err = svc.CreatePost(ctx, u.ID, "   ")
	require.ErrorIs(t, err, flock.ErrValidation)

	post, err := svc.CreatePost(ctx, u.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)

	got, err := svc.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestPostsByAuthor(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)
	for _, c := range []string{"one", "two", "three"} {
		_, err := svc.CreatePost(ctx, u1.ID, c)
		require.NoError(t, err)
	}
	_, err := svc.CreatePost(ctx, u2.ID, "other")
	require.NoError(t, err)

	pg, err := svc.PostsByAuthor(ctx, u1.ID, flock.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two"}, contents(pg.Items))
	assert.Equal(t, 3, pg.Total)

	_, err = svc.PostsByAuthor(ctx, "nobody-usr", flock.NewPage(1, 2))
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func TestCreateFollow(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)

	_, err := svc.CreateFollow(ctx, u1.ID, u1.ID)
	require.ErrorIs(t, err, flock.ErrValidation)

	_, err = svc.CreateFollow(ctx, u1.ID, "nobody-usr")
	require.ErrorIs(t, err, flock.ErrNotFound)

	_, err = svc.CreateFollow(ctx, "nobody-usr", u1.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)

	f, err := svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	_, err = svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.ErrorIs(t, err, flock.ErrConflict)

	got, err := svc.Follow(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	ok, err := svc.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteFollow(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)

	f, err := svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFollow(ctx, f.ID))
	require.NoError(t, svc.DeleteFollow(ctx, f.ID))

	followers, err := svc.Followers(ctx, u2.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, followers.Items)

	ok, err := svc.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Follow(ctx, f.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func TestUnfollow(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		u1     = mustCreateUser(t, svc, "user_one")
		u2     = mustCreateUser(t, svc, "user_two")
	)

	err := svc.Unfollow(ctx, u1.ID, u2.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)

	_, err = svc.CreateFollow(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unfollow(ctx, u1.ID, u2.ID))

	ok, err := svc.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowersAndFollowing(t *testing.T) {
	var (
		ctx    = context.Background()
		svc, _ = newTestService(t)
		star   = mustCreateUser(t, svc, "star")
		fans   []flock.User
	)
	for i := range 4 {
		fan := mustCreateUser(t, svc, fmt.Sprintf("fan_%d", i))
		_, err := svc.CreateFollow(ctx, fan.ID, star.ID)
		require.NoError(t, err)
		fans = append(fans, fan)
	}
	_, err := svc.CreateFollow(ctx, star.ID, fans[0].ID)
	require.NoError(t, err)

	pg, err := svc.Followers(ctx, star.ID, flock.NewPage(1, 3))
	require.NoError(t, err)
	require.Len(t, pg.Items, 3)
	// Most recent follow first.
	assert.Equal(t, fans[3].ID, pg.Items[0].ID)
	assert.Equal(t, fans[1].ID, pg.Items[2].ID)
	assert.Equal(t, 4, pg.Total)
	assert.True(t, pg.HasNextPage)

	pg, err = svc.Following(ctx, star.ID, flock.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, pg.Items, 1)
	assert.Equal(t, fans[0].ID, pg.Items[0].ID)

	followers, following, err := svc.FollowCounts(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, followers)
	assert.Equal(t, 1, following)

	_, err = svc.Followers(ctx, "nobody-usr", flock.NewPage(1, 10))
	require.ErrorIs(t, err, flock.ErrNotFound)

	_, _, err = svc.FollowCounts(ctx, "nobody-usr")
	require.ErrorIs(t, err, flock.ErrNotFound)
}
