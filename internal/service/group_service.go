package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with the caller as first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "members_count", len(req.Msg.MemberIDs))

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(fmt.Errorf("%w: group name is required", errs.ErrInvalidInput))
	}

	group := &models.Group{Name: name, Members: []string{userID}}
	for _, id := range req.Msg.MemberIDs {
		if !group.HasMember(id) {
			group.Members = append(group.Members, id)
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, id := range group.Members {
		if _, ok := users[id]; !ok {
			return nil, toConnectError(fmt.Errorf("%w: %s", errs.ErrUnknownParticipant, id))
		}
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, users)}), nil
}

// GetGroup returns a group to its members.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	apiGroup, err := s.withNames(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: apiGroup}), nil
}

// JoinGroup adds the caller to a group. Joining twice is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.AddGroupMember(ctx, req.Msg.GroupID, userID); err != nil {
		slog.Error("JoinGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	apiGroup, err := s.withNames(ctx, group)
	if err != nil {
		return nil, err
	}

	slog.Info("User joined group", "group_id", group.ID, "user_id", userID)
	return connect.NewResponse(&api.JoinGroupResponse{Group: apiGroup}), nil
}

// ListMyGroups returns the caller's groups.
func (s *GroupService) ListMyGroups(ctx context.Context, req *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListMyGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, 0, len(groups))
	for _, g := range groups {
		apiGroup, err := s.withNames(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, apiGroup)
	}
	return connect.NewResponse(&api.ListMyGroupsResponse{Groups: out}), nil
}

func (s *GroupService) withNames(ctx context.Context, g *models.Group) (*api.Group, error) {
	users, err := s.store.GetUsersByIDs(ctx, g.Members)
	if err != nil {
		return nil, toConnectError(err)
	}
	return toAPIGroup(g, users), nil
}

// loadMemberGroup loads a group and checks that userID belongs to it.
func loadMemberGroup(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.HasMember(userID) {
		return nil, toConnectError(fmt.Errorf("%w: not a member of group %s", errs.ErrNoAccessPermission, groupID))
	}
	return group, nil
}
