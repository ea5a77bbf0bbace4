package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emberquest/api/internal/middleware"
	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/internal/service"
)

// ============================================================================
// Mock GroupService
// ============================================================================

type mockGroupService struct {
	listFunc         func(ctx context.Context, userID string, typeFilter string) ([]model.GroupSummary, error)
	getFunc          func(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error)
	createFunc       func(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error)
	updateFunc       func(ctx context.Context, userID, groupID string, req *model.UpdateGroupRequest) (*model.PopulatedGroup, error)
	joinFunc         func(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error)
	leaveFunc        func(ctx context.Context, userID, groupID string) (string, error)
	inviteFunc       func(ctx context.Context, inviterID, groupID string, req *model.InviteRequest) ([]model.UserSummary, error)
	removeMemberFunc func(ctx context.Context, actorID, groupID, targetID string) error
}

func (m *mockGroupService) List(ctx context.Context, userID string, typeFilter string) ([]model.GroupSummary, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, typeFilter)
	}
	return nil, nil
}

func (m *mockGroupService) Get(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, groupID)
	}
	return &model.PopulatedGroup{ID: groupID}, nil
}

func (m *mockGroupService) Create(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, req)
	}
	return &model.Group{ID: "group:1"}, nil
}

func (m *mockGroupService) Update(ctx context.Context, userID, groupID string, req *model.UpdateGroupRequest) (*model.PopulatedGroup, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, groupID, req)
	}
	return &model.PopulatedGroup{ID: groupID}, nil
}

func (m *mockGroupService) Join(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
	if m.joinFunc != nil {
		return m.joinFunc(ctx, userID, groupID)
	}
	return &model.PopulatedGroup{ID: groupID}, nil
}

func (m *mockGroupService) Leave(ctx context.Context, userID, groupID string) (string, error) {
	if m.leaveFunc != nil {
		return m.leaveFunc(ctx, userID, groupID)
	}
	return groupID, nil
}

func (m *mockGroupService) Invite(ctx context.Context, inviterID, groupID string, req *model.InviteRequest) ([]model.UserSummary, error) {
	if m.inviteFunc != nil {
		return m.inviteFunc(ctx, inviterID, groupID, req)
	}
	return nil, nil
}

func (m *mockGroupService) RemoveMember(ctx context.Context, actorID, groupID, targetID string) error {
	if m.removeMemberFunc != nil {
		return m.removeMemberFunc(ctx, actorID, groupID, targetID)
	}
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUserContext(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// ============================================================================
// Create Tests
// ============================================================================

func TestGroupCreate_Success(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{})

	req := makeJSONRequest(http.MethodPost, "/v1/groups", model.CreateGroupRequest{
		Name: "Ember Keepers",
		Type: "guild",
	})
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
}

func TestGroupCreate_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{})

	req := makeJSONRequest(http.MethodPost, "/v1/groups", model.CreateGroupRequest{
		Name: "Ember Keepers",
		Type: "guild",
	})
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestGroupCreate_NotEnoughGems(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		createFunc: func(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error) {
			return nil, service.ErrNotEnoughGems
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups", model.CreateGroupRequest{
		Name: "Broke Guild",
		Type: "guild",
	})
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusPaymentRequired {
		t.Errorf("expected status %d, got %d", http.StatusPaymentRequired, rr.Code)
	}
}

func TestGroupCreate_ValidationFailure(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		createFunc: func(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error) {
			return nil, model.NewValidationError([]model.FieldError{
				{Field: "name", Message: "name is required"},
			})
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups", model.CreateGroupRequest{Type: "guild"})
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rr.Code)
	}
}

// ============================================================================
// Get / List Tests
// ============================================================================

func TestGroupGet_NotFound(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		getFunc: func(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
			return nil, service.ErrGroupNotFound
		},
	})

	req := makeJSONRequest(http.MethodGet, "/v1/groups/group:missing", nil)
	req.SetPathValue("groupId", "group:missing")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestGroupList_PassesTypeFilter(t *testing.T) {
	t.Parallel()

	var gotFilter string
	h := NewGroupHandler(&mockGroupService{
		listFunc: func(ctx context.Context, userID string, typeFilter string) ([]model.GroupSummary, error) {
			gotFilter = typeFilter
			return []model.GroupSummary{{ID: "group:1"}}, nil
		},
	})

	req := makeJSONRequest(http.MethodGet, "/v1/groups?type=party,guilds", nil)
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if gotFilter != "party,guilds" {
		t.Errorf("expected type filter forwarded, got %q", gotFilter)
	}
}

// ============================================================================
// Update Tests
// ============================================================================

func TestGroupUpdate_NotLeader(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		updateFunc: func(ctx context.Context, userID, groupID string, req *model.UpdateGroupRequest) (*model.PopulatedGroup, error) {
			return nil, service.ErrNotGroupLeader
		},
	})

	name := "New Name"
	req := makeJSONRequest(http.MethodPatch, "/v1/groups/group:1", model.UpdateGroupRequest{Name: &name})
	req.SetPathValue("groupId", "group:1")
	req = withUserContext(req, "user:bob")
	rr := httptest.NewRecorder()

	h.Update(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

// ============================================================================
// Join / Leave Tests
// ============================================================================

func TestGroupJoin_WithoutInvite(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		joinFunc: func(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
			return nil, service.ErrNotMemberOrInvited
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups/group:1/join", nil)
	req.SetPathValue("groupId", "group:1")
	req = withUserContext(req, "user:bob")
	rr := httptest.NewRecorder()

	h.Join(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestGroupLeave_ReturnsLeftGroupID(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		leaveFunc: func(ctx context.Context, userID, groupID string) (string, error) {
			return "group:resolved", nil
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups/party/leave", nil)
	req.SetPathValue("groupId", "party")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Leave(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data["id"] != "group:resolved" {
		t.Errorf("expected resolved group ID, got %+v", resp.Data)
	}
}

func TestGroupJoin_Tavern(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		joinFunc: func(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
			return nil, service.ErrTavernRestricted
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups/group:tavern/join", nil)
	req.SetPathValue("groupId", "group:tavern")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Join(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

// ============================================================================
// Invite / RemoveMember Tests
// ============================================================================

func TestGroupInvite_AlreadyInvited(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		inviteFunc: func(ctx context.Context, inviterID, groupID string, req *model.InviteRequest) ([]model.UserSummary, error) {
			return nil, service.ErrAlreadyInvited
		},
	})

	req := makeJSONRequest(http.MethodPost, "/v1/groups/group:1/invite", model.InviteRequest{
		UUIDs: []string{"user:bob"},
	})
	req.SetPathValue("groupId", "group:1")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.Invite(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestGroupRemoveMember_Success(t *testing.T) {
	t.Parallel()

	var gotTarget string
	h := NewGroupHandler(&mockGroupService{
		removeMemberFunc: func(ctx context.Context, actorID, groupID, targetID string) error {
			gotTarget = targetID
			return nil
		},
	})

	req := makeJSONRequest(http.MethodDelete, "/v1/groups/group:1/members/user:bob", nil)
	req.SetPathValue("groupId", "group:1")
	req.SetPathValue("memberId", "user:bob")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.RemoveMember(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
	if gotTarget != "user:bob" {
		t.Errorf("expected target forwarded, got %q", gotTarget)
	}
}

func TestGroupRemoveMember_Self(t *testing.T) {
	t.Parallel()

	h := NewGroupHandler(&mockGroupService{
		removeMemberFunc: func(ctx context.Context, actorID, groupID, targetID string) error {
			return service.ErrCannotRemoveSelf
		},
	})

	req := makeJSONRequest(http.MethodDelete, "/v1/groups/group:1/members/user:alice", nil)
	req.SetPathValue("groupId", "group:1")
	req.SetPathValue("memberId", "user:alice")
	req = withUserContext(req, "user:alice")
	rr := httptest.NewRecorder()

	h.RemoveMember(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
