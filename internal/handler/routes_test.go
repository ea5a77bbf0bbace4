package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberquest/api/internal/middleware"
	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/pkg/jwt"
)

// ============================================================================
// Router Wiring Tests
// ============================================================================
//
// These tests exercise requests end-to-end through the ServeMux and the
// auth middleware, the same way cmd/server wires them, so that method
// routing, path value extraction, and context propagation are covered
// together rather than per-handler.

// stubValidator satisfies middleware.AuthService with fixed claims.
type stubValidator struct {
	claims *jwt.Claims
	err    error
}

func (s *stubValidator) ValidateAccessToken(token string) (*jwt.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newTestRouter(groups *mockGroupService, chats *mockChatService, hall *mockHallService, validator middleware.AuthService) http.Handler {
	groupHandler := NewGroupHandler(groups)
	chatHandler := NewChatHandler(chats)
	hallHandler := NewHallHandler(hall)

	authMiddleware := middleware.Auth(validator)
	adminMiddleware := middleware.AdminAuth(validator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health)

	mux.Handle("GET /v1/groups", authMiddleware(http.HandlerFunc(groupHandler.List)))
	mux.Handle("POST /v1/groups", authMiddleware(http.HandlerFunc(groupHandler.Create)))
	mux.Handle("GET /v1/groups/{groupId}", authMiddleware(http.HandlerFunc(groupHandler.Get)))
	mux.Handle("PATCH /v1/groups/{groupId}", authMiddleware(http.HandlerFunc(groupHandler.Update)))
	mux.Handle("POST /v1/groups/{groupId}/join", authMiddleware(http.HandlerFunc(groupHandler.Join)))
	mux.Handle("POST /v1/groups/{groupId}/leave", authMiddleware(http.HandlerFunc(groupHandler.Leave)))
	mux.Handle("POST /v1/groups/{groupId}/invite", authMiddleware(http.HandlerFunc(groupHandler.Invite)))
	mux.Handle("DELETE /v1/groups/{groupId}/members/{memberId}", authMiddleware(http.HandlerFunc(groupHandler.RemoveMember)))

	mux.Handle("GET /v1/groups/{groupId}/chat", authMiddleware(http.HandlerFunc(chatHandler.Get)))
	mux.Handle("POST /v1/groups/{groupId}/chat", authMiddleware(http.HandlerFunc(chatHandler.Post)))
	mux.Handle("DELETE /v1/groups/{groupId}/chat/{messageId}", authMiddleware(http.HandlerFunc(chatHandler.Delete)))
	mux.Handle("POST /v1/groups/{groupId}/chat/seen", authMiddleware(http.HandlerFunc(chatHandler.MarkSeen)))

	mux.HandleFunc("GET /v1/hall/patrons", hallHandler.GetPatrons)
	mux.HandleFunc("GET /v1/hall/heroes", hallHandler.GetHeroes)
	mux.Handle("GET /v1/hall/heroes/{heroId}", adminMiddleware(http.HandlerFunc(hallHandler.GetHero)))
	mux.Handle("PATCH /v1/hall/heroes/{heroId}", adminMiddleware(http.HandlerFunc(hallHandler.UpdateHero)))

	return mux
}

func userValidator(userID string) *stubValidator {
	return &stubValidator{claims: &jwt.Claims{
		Subject: userID,
		UserID:  userID,
		Email:   "test@example.com",
		Role:    "user",
	}}
}

func adminValidator(userID string) *stubValidator {
	return &stubValidator{claims: &jwt.Claims{
		Subject: userID,
		UserID:  userID,
		Email:   "admin@example.com",
		Role:    "admin",
	}}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockGroupService{}, &mockChatService{}, &mockHallService{}, userValidator("user:alice"))

	req := httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestRouter_PathValuesReachHandler(t *testing.T) {
	t.Parallel()

	var gotGroupID, gotMemberID string
	groups := &mockGroupService{
		removeMemberFunc: func(ctx context.Context, actorID, groupID, targetID string) error {
			gotGroupID = groupID
			gotMemberID = targetID
			return nil
		},
	}
	router := newTestRouter(groups, &mockChatService{}, &mockHallService{}, userValidator("user:leader"))

	req := httptest.NewRequest(http.MethodDelete, "/v1/groups/group:abc/members/user:bob", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "group:abc", gotGroupID)
	assert.Equal(t, "user:bob", gotMemberID)
}

func TestRouter_AuthenticatedUserFlowsToService(t *testing.T) {
	t.Parallel()

	var gotUserID string
	chats := &mockChatService{
		getChatFunc: func(ctx context.Context, userID, groupID string) ([]model.ChatMessage, error) {
			gotUserID = userID
			return []model.ChatMessage{{ID: "msg-1", Text: "hello"}}, nil
		},
	}
	router := newTestRouter(&mockGroupService{}, chats, &mockHallService{}, userValidator("user:carol"))

	req := httptest.NewRequest(http.MethodGet, "/v1/groups/group:party1/chat", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user:carol", gotUserID)

	var resp struct {
		Data []model.ChatMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "msg-1", resp.Data[0].ID)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockGroupService{}, &mockChatService{}, &mockHallService{}, userValidator("user:alice"))

	req := httptest.NewRequest(http.MethodPut, "/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_HallPatronsIsPublic(t *testing.T) {
	t.Parallel()

	hall := &mockHallService{
		getPatronsFunc: func(ctx context.Context, page int) ([]model.PatronEntry, error) {
			return []model.PatronEntry{{ID: "user:patron", Name: "Patron"}}, nil
		},
	}
	router := newTestRouter(&mockGroupService{}, &mockChatService{}, hall, userValidator("user:alice"))

	// No Authorization header at all.
	req := httptest.NewRequest(http.MethodGet, "/v1/hall/patrons", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data []model.PatronEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "user:patron", resp.Data[0].ID)
}

func TestRouter_HeroRoutesRequireAdmin(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockGroupService{}, &mockChatService{}, &mockHallService{}, userValidator("user:alice"))

	req := httptest.NewRequest(http.MethodGet, "/v1/hall/heroes/user:hero", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_AdminCanReachHeroRoutes(t *testing.T) {
	t.Parallel()

	var gotHeroID string
	hall := &mockHallService{
		getHeroFunc: func(ctx context.Context, heroID string) (*model.Hero, error) {
			gotHeroID = heroID
			return &model.Hero{ID: heroID, Name: "Hero"}, nil
		},
	}
	router := newTestRouter(&mockGroupService{}, &mockChatService{}, hall, adminValidator("user:admin"))

	req := httptest.NewRequest(http.MethodGet, "/v1/hall/heroes/user:hero", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user:hero", gotHeroID)
}
