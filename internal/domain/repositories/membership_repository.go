package repositories

import "context"

// MembershipRepository answers the two authorization questions the datastore
// owns. Both are backed by database procedures.
type MembershipRepository interface {
	IsGroupMember(ctx context.Context, userID, groupID string) (bool, error)
	IsOrgAdminForGroup(ctx context.Context, userID, groupID string) (bool, error)
}
