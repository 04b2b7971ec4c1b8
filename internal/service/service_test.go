package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"chirp-go/internal/api/dto"
	"chirp-go/internal/model"
	"chirp-go/internal/repository"
	"chirp-go/internal/session"
	"chirp-go/internal/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db       *gorm.DB
	auth     *AuthService
	relation *RelationService
	post     *PostService
	stream   *StreamService
	events   *recordingPublisher
}

type recordingPublisher struct {
	posts []int64
	err   error
}

func (p *recordingPublisher) PublishPostCreated(_ context.Context, post *model.Post) error {
	p.posts = append(p.posts, post.ID)
	return p.err
}

func newServices(t *testing.T) *services {
	t.Helper()

	db := testutil.CreateTempDB(t)
	client, _ := testutil.CreateTempRedis(t)

	userRepo := repository.NewUserRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	postRepo := repository.NewPostRepository(db)
	store := session.NewRedisStore(client, session.Options{Secret: "test", Issuer: "chirp-go", TTL: time.Hour})

	events := &recordingPublisher{}
	postService := NewPostService(postRepo, events)

	// 每次发帖时钟前进一秒，保证顺序确定
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	postService.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	return &services{
		db:       db,
		auth:     NewAuthService(userRepo, store),
		relation: NewRelationService(relationRepo, userRepo),
		post:     postService,
		stream:   NewStreamService(postRepo, relationRepo, userRepo),
		events:   events,
	}
}

func (s *services) mustUser(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := s.auth.CreateUser(context.Background(), name, name+"@x.com", "pw-"+name, false)
	require.NoError(t, err)
	return u
}

func (s *services) mustPost(t *testing.T, author *model.User, content string) *model.Post {
	t.Helper()
	p, err := s.post.CreatePost(context.Background(), author.ID, content)
	require.NoError(t, err)
	return p
}

func postIDs(posts []model.Post) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	user, err := s.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret", user.Password)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.auth.Register(ctx, &dto.RegisterRequest{Username: "alice2", Email: "a@x.com", Password: "secret"})
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.auth.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "other@x.com", Password: "secret"})
		assert.ErrorIs(t, err, ErrUsernameExists)
	})

	t.Run("admin seeding is idempotent", func(t *testing.T) {
		require.NoError(t, s.auth.EnsureAdmin(ctx, "root", "root@x.com", "pass1234"))
		require.NoError(t, s.auth.EnsureAdmin(ctx, "root", "root@x.com", "pass1234"))
		require.NoError(t, s.auth.EnsureAdmin(ctx, "", "", ""))

		admin, err := s.auth.GetByUsername(ctx, "root")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin)
	})
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")

	user, err := s.auth.VerifyCredentials(ctx, "alice@x.com", "pw-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, unknownErr := s.auth.VerifyCredentials(ctx, "nobody@x.com", "pw-alice")
	_, wrongErr := s.auth.VerifyCredentials(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, unknownErr, ErrInvalidCredential)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredential)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")

	_, _, err := s.auth.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	user, token, err := s.auth.Login(ctx, "alice@x.com", "pw-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	require.NotEmpty(t, token)

	current := s.auth.CurrentUser(ctx, token)
	assert.True(t, current.IsAuthenticated())
	assert.Equal(t, "alice", current.Username)

	require.NoError(t, s.auth.Logout(ctx, token))
	assert.False(t, s.auth.CurrentUser(ctx, token).IsAuthenticated())

	// 没有会话时登出是 no-op
	require.NoError(t, s.auth.Logout(ctx, ""))
	require.NoError(t, s.auth.Logout(ctx, token))
	assert.Same(t, model.AnonymousUser, s.auth.CurrentUser(ctx, ""))
	assert.Same(t, model.AnonymousUser, s.auth.CurrentUser(ctx, "forged"))
}

func TestFollow(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")
	bob := s.mustUser(t, "bob")

	created, err := s.relation.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.relation.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, s.db.Model(&model.Relation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	following, err := s.relation.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, following)

	_, err = s.relation.Follow(ctx, bob.ID, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.relation.Follow(ctx, bob.ID, bob.ID)
	assert.ErrorIs(t, err, ErrCannotFollowSelf)
}

func TestUnfollowNotFollowing(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")
	bob := s.mustUser(t, "bob")

	removed, err := s.relation.Unfollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	var count int64
	require.NoError(t, s.db.Model(&model.Relation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")

	_, err := s.post.CreatePost(ctx, alice.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = s.post.CreatePost(ctx, alice.ID, string(bytes.Repeat([]byte("é"), MaxPostLength+1)))
	assert.ErrorIs(t, err, ErrContentTooLong)

	post, err := s.post.CreatePost(ctx, alice.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "alice", post.Author.Username)
	assert.Equal(t, []int64{post.ID}, s.events.posts)

	got, err := s.post.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	_, err = s.post.GetPost(ctx, 9999)
	assert.ErrorIs(t, err, ErrPostNotFound)

	t.Run("publish failure does not fail the post", func(t *testing.T) {
		s.events.err = errors.New("broker down")
		_, err := s.post.CreatePost(ctx, alice.ID, "still works")
		require.NoError(t, err)
	})
}

func TestGetPostsByAuthorRestartable(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")
	p1 := s.mustPost(t, alice, "one")
	p2 := s.mustPost(t, alice, "two")
	p3 := s.mustPost(t, alice, "three")

	first, err := s.post.GetPostsByAuthor(ctx, alice.ID, 2)
	require.NoError(t, err)
	second, err := s.post.GetPostsByAuthor(ctx, alice.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, []int64{p3.ID, p2.ID}, postIDs(first))
	assert.Equal(t, postIDs(first), postIDs(second))

	all, err := s.post.GetPostsByAuthor(ctx, alice.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{p3.ID, p2.ID, p1.ID}, postIDs(all))
}

func TestStreamScenario(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	alice, err := s.auth.CreateUser(ctx, "alice", "a@x.com", "pw", false)
	require.NoError(t, err)
	bob, err := s.auth.CreateUser(ctx, "bob", "b@x.com", "pw", false)
	require.NoError(t, err)

	s.mustPost(t, alice, "hi")
	_, err = s.relation.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	stream, err := s.stream.GetStream(ctx, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Equal(t, "hi", stream[0].Content)
	assert.Equal(t, alice.ID, stream[0].Author.ID)

	_, err = s.relation.Unfollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	stream, err = s.stream.GetStream(ctx, bob.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, stream)
}

func TestStreamMembershipAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	u := s.mustUser(t, "u")
	a := s.mustUser(t, "a")
	b := s.mustUser(t, "b")
	c := s.mustUser(t, "c")

	_, err := s.relation.Follow(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = s.relation.Follow(ctx, u.ID, b.ID)
	require.NoError(t, err)
	// c 关注 u 不影响 u 的信息流
	_, err = s.relation.Follow(ctx, c.ID, u.ID)
	require.NoError(t, err)

	var want []int64
	for i := 0; i < 30; i++ {
		author := []*model.User{u, a, b, c}[i%4]
		p := s.mustPost(t, author, "post")
		if author.ID != c.ID {
			want = append([]int64{p.ID}, want...)
		}
	}

	stream, err := s.stream.GetStream(ctx, u.ID, 100)
	require.NoError(t, err)
	if diff := cmp.Diff(want, postIDs(stream)); diff != "" {
		t.Fatalf("stream mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(stream); i++ {
		assert.True(t, stream[i-1].CreatedAt.After(stream[i].CreatedAt))
	}

	limited, err := s.stream.GetStream(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, want[:5], postIDs(limited))

	global, err := s.stream.GetGlobalStream(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, global, 30)
}

func TestUserStream(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := s.mustUser(t, "alice")
	bob := s.mustUser(t, "bob")
	s.mustPost(t, alice, "from alice")
	s.mustPost(t, bob, "from bob")
	_, err := s.relation.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	data, err := s.stream.GetUserStream(ctx, bob, "alice", 100)
	require.NoError(t, err)
	require.Len(t, data.Posts, 1)
	assert.Equal(t, "from alice", data.Posts[0].Content)
	assert.Equal(t, int64(1), data.PostCount)
	assert.Equal(t, int64(1), data.FollowingCount)
	assert.Zero(t, data.FollowerCount)
	assert.False(t, data.IsFollowing)
	assert.False(t, data.IsSelf)
	require.Len(t, data.Following, 1)
	assert.Equal(t, "bob", data.Following[0].Username)

	data, err = s.stream.GetUserStream(ctx, alice, "bob", 100)
	require.NoError(t, err)
	assert.True(t, data.IsFollowing)
	assert.Equal(t, int64(1), data.FollowerCount)

	data, err = s.stream.GetUserStream(ctx, model.AnonymousUser, "alice", 100)
	require.NoError(t, err)
	assert.False(t, data.IsFollowing)

	// 自己的主页只展示自己的帖子
	data, err = s.stream.GetUserStream(ctx, alice, "alice", 100)
	require.NoError(t, err)
	assert.True(t, data.IsSelf)
	assert.Len(t, data.Posts, 1)

	_, err = s.stream.GetUserStream(ctx, alice, "ALICE", 100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type fakeIndex struct {
	ids     []int64
	err     error
	queries []map[string]interface{}
	indexed []int64
}

func (f *fakeIndex) SearchPostIDs(_ context.Context, query map[string]interface{}) ([]int64, error) {
	f.queries = append(f.queries, query)
	return f.ids, f.err
}

func (f *fakeIndex) IndexPost(_ context.Context, post *model.Post) error {
	f.indexed = append(f.indexed, post.ID)
	return nil
}

func (f *fakeIndex) BulkIndexPosts(_ context.Context, posts []model.Post) (int, int, error) {
	for _, p := range posts {
		f.indexed = append(f.indexed, p.ID)
	}
	return len(posts), 0, nil
}

func TestSearchPosts(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	postRepo := repository.NewPostRepository(s.db)
	alice := s.mustUser(t, "alice")
	p1 := s.mustPost(t, alice, "Hello gophers")
	p2 := s.mustPost(t, alice, "goodbye")
	p3 := s.mustPost(t, alice, "hello again")

	t.Run("empty query", func(t *testing.T) {
		res, err := NewSearchService(postRepo, nil).SearchPosts(ctx, "  ", 10)
		require.NoError(t, err)
		assert.Empty(t, res.Posts)
	})

	t.Run("database only", func(t *testing.T) {
		res, err := NewSearchService(postRepo, nil).SearchPosts(ctx, "hello", 10)
		require.NoError(t, err)
		assert.Equal(t, SearchSourceDB, res.Source)
		assert.Equal(t, []int64{p3.ID, p1.ID}, postIDs(res.Posts))
	})

	t.Run("elasticsearch order is kept", func(t *testing.T) {
		index := &fakeIndex{ids: []int64{p1.ID, 9999, p2.ID}}
		res, err := NewSearchService(postRepo, index).SearchPosts(ctx, "hello", 10)
		require.NoError(t, err)
		assert.Equal(t, SearchSourceES, res.Source)
		assert.Equal(t, []int64{p1.ID, p2.ID}, postIDs(res.Posts))
		require.Len(t, index.queries, 1)
		assert.Equal(t, 10, index.queries[0]["size"])
	})

	t.Run("fallback on elasticsearch error", func(t *testing.T) {
		index := &fakeIndex{err: io.ErrUnexpectedEOF}
		res, err := NewSearchService(postRepo, index).SearchPosts(ctx, "HELLO", 10)
		require.NoError(t, err)
		assert.Equal(t, SearchSourceDB, res.Source)
		assert.Len(t, res.Posts, 2)
	})

	t.Run("indexing", func(t *testing.T) {
		index := &fakeIndex{}
		svc := NewSearchService(postRepo, index)
		require.NoError(t, svc.IndexPost(ctx, p2.ID))
		assert.ErrorIs(t, svc.IndexPost(ctx, 9999), ErrPostNotFound)

		ok, failed, err := svc.ReindexAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, ok)
		assert.Zero(t, failed)

		assert.ErrorIs(t, NewSearchService(postRepo, nil).IndexPost(ctx, p1.ID), ErrSearchDisabled)
	})
}

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.objects[objectName] = data
	return "http://cdn.local/avatars/" + objectName, nil
}

func TestAvatarUpload(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	userRepo := repository.NewUserRepository(s.db)
	alice := s.mustUser(t, "alice")

	disabled := NewAvatarService(userRepo, nil)
	assert.False(t, disabled.Enabled())
	_, err := disabled.Upload(ctx, alice.ID, "a.png", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, ErrAvatarDisabled)

	storage := &memoryStorage{objects: map[string][]byte{}}
	svc := NewAvatarService(userRepo, storage)

	_, err = svc.Upload(ctx, alice.ID, "a.exe", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, ErrAvatarFormat)
	_, err = svc.Upload(ctx, alice.ID, "a.png", bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrAvatarSize)
	_, err = svc.Upload(ctx, alice.ID, "a.png", bytes.NewReader(nil), MaxAvatarSize+1)
	assert.ErrorIs(t, err, ErrAvatarSize)

	url, err := svc.Upload(ctx, alice.ID, "Me.PNG", bytes.NewReader([]byte("png-bytes")), 9)
	require.NoError(t, err)
	assert.Contains(t, url, "users/")
	assert.Len(t, storage.objects, 1)

	user, err := userRepo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, url, *user.Avatar)
}
