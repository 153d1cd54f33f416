package api

type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []*Member `json:"members"`
	CreatedAt int64     `json:"createdAt"`
}

// CreateGroupRequest creates a group. The caller is always a member;
// MemberIDs adds other existing users.
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type JoinGroupRequest struct {
	GroupID string `json:"groupId"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type ListMyGroupsRequest struct{}

type ListMyGroupsResponse struct {
	Groups []*Group `json:"groups"`
}
