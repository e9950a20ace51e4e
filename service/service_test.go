package service

import (
	"context"
	"testing"

	"story4u-backend/auth"
	"story4u-backend/cache"
	"story4u-backend/database"
	"story4u-backend/errs"
	"story4u-backend/models"
	"story4u-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db      *gorm.DB
	users   *UserService
	gifs    *GifService
	posts   *PostService
	surveys *SurveyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens := auth.NewTokenService("test-secret")
	return &testEnv{
		db:      db,
		users:   NewUserService(repository.NewUserRepository(db), tokens, cache.NewLocalLockService(), zap.NewNop()),
		gifs:    NewGifService(repository.NewGifRepository(db)),
		posts:   NewPostService(repository.NewPostRepository(db)),
		surveys: NewSurveyService(repository.NewSurveyRepository(db)),
	}
}

func (e *testEnv) mkUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "n", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func str(s string) *string { return &s }

func TestCanMutate(t *testing.T) {
	owner := &models.User{Email: "a@example.com", Role: models.RoleUser}
	other := &models.User{Email: "b@example.com", Role: models.RoleAdmin}
	super := &models.User{Email: "s@example.com", Role: models.RoleSuperAdmin}

	assert.True(t, CanMutate(owner, "a@example.com"))
	assert.True(t, CanMutate(owner, "A@Example.com"))
	assert.False(t, CanMutate(other, "a@example.com"))
	assert.True(t, CanMutate(super, "a@example.com"))
	assert.False(t, CanMutate(nil, "a@example.com"))
	assert.False(t, CanMutate(&models.User{Role: models.RoleUser}, ""))
}

func TestBootstrapOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, tok, err := env.users.Bootstrap(ctx, RegisterInput{Name: "Root", Email: "root@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, u.Role)
	assert.NotEmpty(t, tok)

	_, _, err = env.users.Bootstrap(ctx, RegisterInput{Name: "Root2", Email: "root2@example.com", Password: "password1"})
	assert.Equal(t, errs.Forbidden, errs.CodeOf(err))
}

func TestBootstrapRefusedWithLegacySuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	legacy := env.mkUser(t, "old@example.com", models.RoleUser)
	require.NoError(t, env.db.Exec("UPDATE users SET role = ? WHERE id = ?", "superAdmin", legacy.ID).Error)

	_, _, err := env.users.Bootstrap(context.Background(), RegisterInput{Name: "Root", Email: "root@example.com", Password: "password1"})
	assert.Equal(t, errs.Forbidden, errs.CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.users.Register(ctx, RegisterInput{Name: "<b>x</b>", Email: "x@example.com", Password: "password1", Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))
	assert.Equal(t, []string{
		"HTML tags are not allowed in the name field. Please use plain text only.",
		"role must be one of user, admin, superadmin.",
	}, errs.DetailsOf(err))

	u, _, err := env.users.Register(ctx, RegisterInput{Name: "Ann", Email: "Ann@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, "ann@example.com", u.Email)

	_, _, err = env.users.Register(ctx, RegisterInput{Name: "Ann2", Email: "ann@example.com", Password: "password1"})
	assert.Equal(t, errs.Conflict, errs.CodeOf(err))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, err := env.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "password1", Role: "admin"})
	require.NoError(t, err)

	u, tok, err := env.users.Login(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NotEmpty(t, tok)

	_, _, err = env.users.Login(ctx, "ann@example.com", "wrong-password")
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(err))

	_, _, errUnknown := env.users.Login(ctx, "ghost@example.com", "password1")
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(errUnknown))
	assert.Equal(t, errs.MessageOf(err), errs.MessageOf(errUnknown))
}

func TestUpdateRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	super := env.mkUser(t, "s@example.com", models.RoleSuperAdmin)
	admin := env.mkUser(t, "a@example.com", models.RoleAdmin)
	user := env.mkUser(t, "u@example.com", models.RoleUser)

	for _, caller := range []*models.User{super, admin, user} {
		_, err := env.users.UpdateRole(ctx, caller, caller.ID, "superadmin")
		assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err), caller.Role)
	}

	_, err := env.users.UpdateRole(ctx, admin, user.ID, "admin")
	assert.Equal(t, errs.Forbidden, errs.CodeOf(err))

	updated, err := env.users.UpdateRole(ctx, super, user.ID, "superAdmin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, updated.Role)

	_, err = env.users.UpdateRole(ctx, super, 9999, "user")
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestGifOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice@example.com", models.RoleUser)
	bob := env.mkUser(t, "bob@example.com", models.RoleAdmin)
	super := env.mkUser(t, "s@example.com", models.RoleSuperAdmin)

	gif, created, err := env.gifs.Save(ctx, alice, GifInput{Name: str("wave"), Content: str(`<p>hi</p>`)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice@example.com", gif.UserEmail)
	assert.Equal(t, models.RoleUser, gif.Role)

	_, _, err = env.gifs.Save(ctx, bob, GifInput{ID: gif.ID, Name: str("stolen")})
	assert.Equal(t, errs.Forbidden, errs.CodeOf(err))
	unchanged, err := env.gifs.Get(ctx, gif.ID)
	require.NoError(t, err)
	assert.Equal(t, "wave", unchanged.Name)

	updated, created, err := env.gifs.Save(ctx, super, GifInput{ID: gif.ID, Name: str("moderated")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "moderated", updated.Name)
	assert.Equal(t, "alice@example.com", updated.UserEmail, "owner is preserved")

	_, _, err = env.gifs.Save(ctx, alice, GifInput{ID: 12345, Name: str("x")})
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestGifValidationRejectsBeforePersisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice@example.com", models.RoleUser)

	_, _, err := env.gifs.Save(ctx, alice, GifInput{
		Name:    str("<i>x</i>"),
		Content: str(`<script>alert(1)</script><iframe src="https://evil.com"></iframe>`),
	})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))
	assert.GreaterOrEqual(t, len(errs.DetailsOf(err)), 3)

	list, err := env.gifs.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _, err = env.gifs.Save(ctx, alice, GifInput{Content: str("<p>x</p>")})
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err), "name is required on create")
}

func TestPostArchiveFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.mkUser(t, "a@example.com", models.RoleAdmin)
	other := env.mkUser(t, "o@example.com", models.RoleAdmin)
	super := env.mkUser(t, "s@example.com", models.RoleSuperAdmin)

	cat := 3
	post, _, err := env.posts.Save(ctx, admin, PostInput{Name: str("talk"), Description: str(`<a href="https://example.com">x</a>`), Category: &cat})
	require.NoError(t, err)
	assert.Contains(t, post.Description, `rel="noopener noreferrer"`)

	assert.Equal(t, errs.Forbidden, errs.CodeOf(env.posts.Archive(ctx, other, post.ID)))
	require.NoError(t, env.posts.Archive(ctx, admin, post.ID))

	mine, err := env.posts.ListArchived(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := env.posts.ListArchived(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	all, err := env.posts.ListArchived(ctx, super)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	restored, err := env.posts.Restore(ctx, admin, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, restored.ID)

	list, err := env.posts.List(ctx, &cat)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSurveySaveAndVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.mkUser(t, "a@example.com", models.RoleAdmin)

	_, _, err := env.surveys.Save(ctx, admin, SurveyInput{Title: str("Q"), Choices: []ChoiceInput{{Key: "a", Label: "A"}}})
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	_, _, err = env.surveys.Save(ctx, admin, SurveyInput{Title: str("Q"), Choices: []ChoiceInput{{Key: "a", Label: "A"}, {Key: "a", Label: "B"}}})
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	survey, created, err := env.surveys.Save(ctx, admin, SurveyInput{
		Title:   str("Best season"),
		Choices: []ChoiceInput{{Key: "spring", Label: "Spring"}, {Key: "winter", Label: "Winter"}},
	})
	require.NoError(t, err)
	assert.True(t, created)

	voted, err := env.surveys.Vote(ctx, survey.ID, "winter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), voted.TotalVotes)

	_, err = env.surveys.Vote(ctx, survey.ID, "")
	assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))

	renamed, created, err := env.surveys.Save(ctx, admin, SurveyInput{ID: survey.ID, Title: str("Best season ever")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Best season ever", renamed.Title)
	assert.Equal(t, int64(1), renamed.TotalVotes)
}
