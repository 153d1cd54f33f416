package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "settleup.v1.GroupService"

// Procedure paths.
const (
	GroupServiceCreateGroupProcedure  = PackagePrefix + "GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = PackagePrefix + "GroupService/GetGroup"
	GroupServiceJoinGroupProcedure    = PackagePrefix + "GroupService/JoinGroup"
	GroupServiceListMyGroupsProcedure = PackagePrefix + "GroupService/ListMyGroups"
)

// GroupServiceHandler is implemented by the server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	ListMyGroups(context.Context, *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error)
}

// NewGroupServiceHandler returns the mount path and handler for svc.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath("GroupService"), serviceMux(
		unary(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts),
		unary(GroupServiceGetGroupProcedure, svc.GetGroup, opts),
		unary(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts),
		unary(GroupServiceListMyGroupsProcedure, svc.ListMyGroups, opts),
	)
}

// GroupServiceClient calls a remote GroupService.
type GroupServiceClient struct {
	createGroup  *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup     *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	joinGroup    *connect.Client[api.JoinGroupRequest, api.JoinGroupResponse]
	listMyGroups *connect.Client[api.ListMyGroupsRequest, api.ListMyGroupsResponse]
}

// NewGroupServiceClient creates a client for the service at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:  newClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL, GroupServiceCreateGroupProcedure, opts),
		getGroup:     newClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL, GroupServiceGetGroupProcedure, opts),
		joinGroup:    newClient[api.JoinGroupRequest, api.JoinGroupResponse](httpClient, baseURL, GroupServiceJoinGroupProcedure, opts),
		listMyGroups: newClient[api.ListMyGroupsRequest, api.ListMyGroupsResponse](httpClient, baseURL, GroupServiceListMyGroupsProcedure, opts),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListMyGroups(ctx context.Context, req *connect.Request[api.ListMyGroupsRequest]) (*connect.Response[api.ListMyGroupsResponse], error) {
	return c.listMyGroups.CallUnary(ctx, req)
}
