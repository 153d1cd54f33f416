package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")
	bob := s.createUser(t, "Bob")
	charlie := s.createUser(t, "Charlie")

	resp, err := s.groups.CreateGroup(context.Background(), as(alice.ID, &api.CreateGroupRequest{
		Name:      "Roommates",
		MemberIDs: []string{bob.ID, charlie.ID, alice.ID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group == nil {
		t.Fatal("expected group in response")
	}
	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members: expected 3, got %d", len(group.Members))
	}
	if group.Members[0].UserID != alice.ID || group.Members[0].DisplayName != "Alice" {
		t.Errorf("expected creator first, got %+v", group.Members[0])
	}
	if group.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestCreateGroup_Validation(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")

	tests := []struct {
		name string
		user string
		req  *api.CreateGroupRequest
		code connect.Code
	}{
		{"unauthenticated", "", &api.CreateGroupRequest{Name: "Trip"}, connect.CodeUnauthenticated},
		{"blank name", alice.ID, &api.CreateGroupRequest{Name: "  "}, connect.CodeInvalidArgument},
		{"unknown member", alice.ID, &api.CreateGroupRequest{Name: "Trip", MemberIDs: []string{"ghost"}}, connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.groups.CreateGroup(context.Background(), as(tt.user, tt.req))
			assertCode(t, err, tt.code)
		})
	}
}

func TestGetGroup(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")
	bob := s.createUser(t, "Bob")
	outsider := s.createUser(t, "Outsider")
	ctx := context.Background()

	created, err := s.groups.CreateGroup(ctx, as(alice.ID, &api.CreateGroupRequest{Name: "Trip", MemberIDs: []string{bob.ID}}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Msg.Group.ID

	resp, err := s.groups.GetGroup(ctx, as(bob.ID, &api.GetGroupRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Trip" {
		t.Errorf("name: expected 'Trip', got '%s'", resp.Msg.Group.Name)
	}
	if len(resp.Msg.Group.Members) != 2 {
		t.Errorf("members: expected 2, got %d", len(resp.Msg.Group.Members))
	}

	_, err = s.groups.GetGroup(ctx, as(outsider.ID, &api.GetGroupRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestGetGroup_NotFound(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")

	_, err := s.groups.GetGroup(context.Background(), as(alice.ID, &api.GetGroupRequest{GroupID: "non-existent-id"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestJoinGroup(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")
	bob := s.createUser(t, "Bob")
	ctx := context.Background()

	created, err := s.groups.CreateGroup(ctx, as(alice.ID, &api.CreateGroupRequest{Name: "Trip"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Msg.Group.ID

	for i := 0; i < 2; i++ {
		resp, err := s.groups.JoinGroup(ctx, as(bob.ID, &api.JoinGroupRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("JoinGroup #%d failed: %v", i+1, err)
		}
		if len(resp.Msg.Group.Members) != 2 {
			t.Errorf("join #%d: expected 2 members, got %d", i+1, len(resp.Msg.Group.Members))
		}
	}

	_, err = s.groups.JoinGroup(ctx, as(bob.ID, &api.JoinGroupRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestListMyGroups(t *testing.T) {
	s := setupTestServer(t)
	alice := s.createUser(t, "Alice")
	bob := s.createUser(t, "Bob")
	ctx := context.Background()

	for _, name := range []string{"Group A", "Group B"} {
		if _, err := s.groups.CreateGroup(ctx, as(alice.ID, &api.CreateGroupRequest{Name: name})); err != nil {
			t.Fatalf("CreateGroup %s failed: %v", name, err)
		}
	}

	resp, err := s.groups.ListMyGroups(ctx, as(alice.ID, &api.ListMyGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}
	if len(resp.Msg.Groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(resp.Msg.Groups))
	}

	resp, err = s.groups.ListMyGroups(ctx, as(bob.ID, &api.ListMyGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}
	if len(resp.Msg.Groups) != 0 {
		t.Errorf("expected 0 groups, got %d", len(resp.Msg.Groups))
	}
}
