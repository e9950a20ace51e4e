package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"story4u-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapSucceedsOnce(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodPost, "/api/auth/bootstrap", "", map[string]string{
		"name": "Root", "email": "root@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.True(t, body.Status)
	assert.True(t, body.Auth)
	require.NotNil(t, body.Token)
	assert.Equal(t, "superadmin", body.Role)

	rec = env.do(t, http.MethodPost, "/api/auth/bootstrap", "", map[string]string{
		"name": "Other", "email": "other@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decode(t, rec).Status)
}

func TestRegisterRequiresSuperadmin(t *testing.T) {
	env := setupTestEnvironment(t)
	_, adminToken := env.createUser(t, "admin@example.com", models.RoleAdmin)
	_, superToken := env.createUser(t, "root@example.com", models.RoleSuperAdmin)
	newUser := map[string]string{"name": "Ann", "email": "ann@example.com", "password": "password1"}

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", newUser)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", adminToken, newUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", superToken, newUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user", decode(t, rec).Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/register", superToken, newUser)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", superToken, map[string]string{
		"name": "<b>x</b>", "email": "bad", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{
		"a valid email is required.",
		"password must be at least 8 characters.",
	}, decode(t, rec).Errors)

	rec = env.do(t, http.MethodPost, "/api/auth/register", superToken, map[string]string{
		"name": "<b>x</b>", "email": "x@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"HTML tags are not allowed in the name field. Please use plain text only."}, decode(t, rec).Errors)
}

func TestRequestBindingDetails(t *testing.T) {
	env := setupTestEnvironment(t)
	_, superToken := env.createUser(t, "root@example.com", models.RoleSuperAdmin)
	target, _ := env.createUser(t, "user@example.com", models.RoleUser)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   []string
	}{
		{
			name:   "register empty body",
			method: http.MethodPost,
			path:   "/api/auth/register",
			body:   map[string]string{},
			want:   []string{"name is required.", "email is required.", "password is required."},
		},
		{
			name:   "register unknown role",
			method: http.MethodPost,
			path:   "/api/auth/register",
			body:   map[string]string{"name": "Ann", "email": "ann@example.com", "password": "password1", "role": "owner"},
			want:   []string{"role must be one of user, admin, superadmin."},
		},
		{
			name:   "role update missing role",
			method: http.MethodPut,
			path:   fmt.Sprintf("/api/auth/users/%d/role", target.ID),
			body:   map[string]string{},
			want:   []string{"role is required."},
		},
		{
			name:   "gif without name",
			method: http.MethodPost,
			path:   "/api/gif/addUpdate",
			body:   map[string]string{"gif_instance": "<p>x</p>"},
			want:   []string{"name is required."},
		},
		{
			name:   "post with negative category",
			method: http.MethodPost,
			path:   "/api/satsang/addUpdate",
			body:   map[string]interface{}{"name": "talk", "category": -1},
			want:   []string{"category must not be negative."},
		},
		{
			name:   "survey with one choice",
			method: http.MethodPost,
			path:   "/api/surveys",
			body: map[string]interface{}{
				"title":   "Q",
				"choices": []map[string]string{{"key": "a", "label": "A"}},
			},
			want: []string{"a survey needs at least 2 choices."},
		},
		{
			name:   "survey choice without label",
			method: http.MethodPost,
			path:   "/api/surveys",
			body: map[string]interface{}{
				"title":   "Q",
				"choices": []map[string]string{{"key": "a"}, {"key": "b"}},
			},
			want: []string{"choice label is required."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, superToken, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.False(t, body.Status)
			assert.Equal(t, tt.want, body.Errors)
		})
	}

	var users int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)
}

func TestLoginAndMe(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createUser(t, "ann@example.com", models.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.True(t, body.Auth)
	assert.Equal(t, "ann@example.com", body.LoginUser)
	assert.Equal(t, "admin", body.Role)
	require.NotNil(t, body.Token)

	rec = env.do(t, http.MethodGet, "/api/auth/me", *body.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decodeData(t, rec, &me)
	assert.Equal(t, "ann@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	wrong := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "nope-nope"})
	unknown := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decode(t, wrong).Message, decode(t, unknown).Message)

	rec = env.do(t, http.MethodGet, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.False(t, body.Auth)
	assert.Nil(t, body.Token)
}

func TestTokenRejected(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := env.tokens.Issue(4242)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "user deleted after token issuance")
}

func TestSelfRoleUpdateAlwaysRejected(t *testing.T) {
	env := setupTestEnvironment(t)

	for _, role := range []models.Role{models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin} {
		u, token := env.createUser(t, string(role)+"@example.com", role)
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/auth/users/%d/role", u.ID), token, map[string]string{"role": "superadmin"})
		assert.Equal(t, http.StatusBadRequest, rec.Code, role)

		var stored models.User
		require.NoError(t, env.db.First(&stored, u.ID).Error)
		assert.Equal(t, role, stored.Role)
	}
}

func TestRoleUpdate(t *testing.T) {
	env := setupTestEnvironment(t)
	_, superToken := env.createUser(t, "root@example.com", models.RoleSuperAdmin)
	admin, adminToken := env.createUser(t, "admin@example.com", models.RoleAdmin)
	user, _ := env.createUser(t, "user@example.com", models.RoleUser)

	rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/auth/users/%d/role", user.ID), adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/auth/users/%d/role", user.ID), superToken, map[string]string{"role": "superAdmin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.User
	decodeData(t, rec, &updated)
	assert.Equal(t, models.RoleSuperAdmin, updated.Role)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/auth/users/%d/role", admin.ID), superToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/users", superToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decodeData(t, rec, &users)
	assert.Len(t, users, 3)
}
