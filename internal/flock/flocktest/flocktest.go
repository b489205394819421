// Package flocktest holds the behavior every flock.Repository has to share.
// Backends run it from their own tests:
//
//	func TestRepository(t *testing.T) {
//		flocktest.Run(t, func(t *testing.T) flock.Repository { return memstore.New() })
//	}
package flocktest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/flock/internal/flock"
)

// Epoch is the base time the suite stamps entities with.
var Epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Run exercises a fresh repository from newRepo in every subtest.
func Run(t *testing.T, newRepo func(t *testing.T) flock.Repository) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo flock.Repository)
	}{
		{"CreateUser", testCreateUser},
		{"DuplicateUsername", testDuplicateUsername},
		{"UserNotFound", testUserNotFound},
		{"AllUsersInInsertionOrder", testAllUsers},
		{"AllUsersStopsEarly", testAllUsersStopsEarly},
		{"CreatePostAssignsSeq", testCreatePost},
		{"PostsByAuthorNewestFirst", testPostsByAuthor},
		{"PostsByAuthorTieBreaksOnSeq", testPostsByAuthorTies},
		{"AllPosts", testAllPosts},
		{"CreateFollow", testCreateFollow},
		{"DuplicateFollow", testDuplicateFollow},
		{"ConcurrentDuplicateFollow", testConcurrentDuplicateFollow},
		{"DeleteFollowPrunesIndices", testDeleteFollow},
		{"DeleteUnknownFollow", testDeleteUnknownFollow},
		{"RefollowAfterDelete", testRefollow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func mustUser(t *testing.T, repo flock.Repository, username string) flock.User {
	t.Helper()

	usr, err := flock.NewUser(username, "Display "+username, Epoch)
	require.NoError(t, err)
	usr, err = repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	return usr
}

func mustPost(t *testing.T, repo flock.Repository, authorID, content string, at time.Time) flock.Post {
	t.Helper()

	post, err := flock.NewPost(authorID, content, at)
	require.NoError(t, err)
	post, err = repo.CreatePost(context.Background(), post)
	require.NoError(t, err)

	return post
}

func mustFollow(t *testing.T, repo flock.Repository, followerID, followedID string) flock.Follow {
	t.Helper()

	f, err := flock.NewFollow(followerID, followedID, Epoch)
	require.NoError(t, err)
	f, err = repo.CreateFollow(context.Background(), f)
	require.NoError(t, err)

	return f
}

func testCreateUser(t *testing.T, repo flock.Repository) {
	ctx := context.Background()
	created := mustUser(t, repo, "alice")

	got, err := repo.User(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("User() mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	exists, err := repo.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testDuplicateUsername(t *testing.T, repo flock.Repository) {
	mustUser(t, repo, "alice")

	dup, err := flock.NewUser("alice", "Another Alice", Epoch)
	require.NoError(t, err)
	_, err = repo.CreateUser(context.Background(), dup)
	require.ErrorIs(t, err, flock.ErrConflict)

	_, err = repo.User(context.Background(), dup.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func testUserNotFound(t *testing.T, repo flock.Repository) {
	ctx := context.Background()

	_, err := repo.User(ctx, "missing-usr")
	require.ErrorIs(t, err, flock.ErrNotFound)

	_, err = repo.UserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func testAllUsers(t *testing.T, repo flock.Repository) {
	var want []string
	for i := range 5 {
		want = append(want, mustUser(t, repo, fmt.Sprintf("user_%d", i)).ID)
	}

	// Ranging twice must restart from the first user.
	for range 2 {
		var got []string
		for usr, err := range repo.AllUsers(context.Background()) {
			require.NoError(t, err)
			got = append(got, usr.ID)
		}
		assert.Equal(t, want, got)
	}
}

func testAllUsersStopsEarly(t *testing.T, repo flock.Repository) {
	for i := range 3 {
		mustUser(t, repo, fmt.Sprintf("user_%d", i))
	}

	seen := 0
	for _, err := range repo.AllUsers(context.Background()) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)

	// The store is still usable after an abandoned range.
	mustUser(t, repo, "after_break")
}

func testCreatePost(t *testing.T, repo flock.Repository) {
	ctx := context.Background()
	author := mustUser(t, repo, "alice")

	first := mustPost(t, repo, author.ID, "first", Epoch)
	second := mustPost(t, repo, author.ID, "second", Epoch.Add(time.Second))
	assert.Greater(t, second.Seq, first.Seq)

	got, err := repo.Post(ctx, first.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("Post() mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.Post(ctx, "missing-pst")
	require.ErrorIs(t, err, flock.ErrNotFound)
}

func testPostsByAuthor(t *testing.T, repo flock.Repository) {
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")

	p1 := mustPost(t, repo, alice.ID, "one", Epoch.Add(1*time.Minute))
	mustPost(t, repo, bob.ID, "bob's", Epoch.Add(2*time.Minute))
	// p2 arrives after p3 but is older, so the store has to order by time
	// rather than arrival.
	p3 := mustPost(t, repo, alice.ID, "three", Epoch.Add(3*time.Minute))
	p2 := mustPost(t, repo, alice.ID, "two", Epoch.Add(2*time.Minute))

	posts, err := repo.PostsByAuthor(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, ids(posts))

	posts, err = repo.PostsByAuthor(context.Background(), "nobody-usr")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func testPostsByAuthorTies(t *testing.T, repo flock.Repository) {
	alice := mustUser(t, repo, "alice")

	a := mustPost(t, repo, alice.ID, "a", Epoch)
	b := mustPost(t, repo, alice.ID, "b", Epoch)
	c := mustPost(t, repo, alice.ID, "c", Epoch)

	posts, err := repo.PostsByAuthor(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(posts))
}

func testAllPosts(t *testing.T, repo flock.Repository) {
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	want := []string{
		mustPost(t, repo, alice.ID, "a", Epoch).ID,
		mustPost(t, repo, bob.ID, "b", Epoch).ID,
		mustPost(t, repo, alice.ID, "c", Epoch).ID,
	}

	var got []string
	for post, err := range repo.AllPosts(context.Background()) {
		require.NoError(t, err)
		got = append(got, post.ID)
	}
	assert.ElementsMatch(t, want, got)
}

func testCreateFollow(t *testing.T, repo flock.Repository) {
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")

	f := mustFollow(t, repo, alice.ID, bob.ID)

	got, err := repo.Follow(ctx, f.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("Follow() mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.FollowByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	_, err = repo.FollowByPair(ctx, bob.ID, alice.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Edges are directed.
	following, err = repo.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, followIDs(followers))

	out, err := repo.Following(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, followIDs(out))

	followers, err = repo.Followers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func testDuplicateFollow(t *testing.T, repo flock.Repository) {
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	mustFollow(t, repo, alice.ID, bob.ID)

	dup, err := flock.NewFollow(alice.ID, bob.ID, Epoch)
	require.NoError(t, err)
	_, err = repo.CreateFollow(context.Background(), dup)
	require.ErrorIs(t, err, flock.ErrConflict)

	followers, err := repo.Followers(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)
}

func testConcurrentDuplicateFollow(t *testing.T, repo flock.Repository) {
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			f, err := flock.NewFollow(alice.ID, bob.ID, Epoch)
			if err != nil {
				return
			}
			_, err = repo.CreateFollow(context.Background(), f)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, flock.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func testDeleteFollow(t *testing.T, repo flock.Repository) {
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	f := mustFollow(t, repo, alice.ID, bob.ID)

	require.NoError(t, repo.DeleteFollow(ctx, f.ID))

	_, err := repo.Follow(ctx, f.ID)
	require.ErrorIs(t, err, flock.ErrNotFound)

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := repo.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	out, err := repo.Following(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, out)

	// Deleting twice is fine.
	require.NoError(t, repo.DeleteFollow(ctx, f.ID))
}

func testDeleteUnknownFollow(t *testing.T, repo flock.Repository) {
	require.NoError(t, repo.DeleteFollow(context.Background(), "missing-flw"))
}

func testRefollow(t *testing.T, repo flock.Repository) {
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")

	first := mustFollow(t, repo, alice.ID, bob.ID)
	require.NoError(t, repo.DeleteFollow(ctx, first.ID))
	second := mustFollow(t, repo, alice.ID, bob.ID)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.Seq, first.Seq)

	got, err := repo.FollowByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func ids(posts []flock.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func followIDs(fs []flock.Follow) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}
