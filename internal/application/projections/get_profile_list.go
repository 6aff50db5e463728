package projections

import (
	"context"
	"fmt"

	"tutorcenter/internal/adapters/storage/profile"
	"tutorcenter/internal/application/listutil"
	domainProfile "tutorcenter/internal/domain/profile"
)

// ProfileSortColumns are the columns the list pages can order by.
var ProfileSortColumns = []string{"full_name", "email", "created_at"}

// GetProfileListQuery carries query parameters.
type GetProfileListQuery struct {
	Role   string
	Params listutil.Params
}

// GetProfileListResult carries one page of profiles.
type GetProfileListResult struct {
	Profiles []domainProfile.Profile
	Page     listutil.PageInfo
	Params   listutil.Params
}

// GetProfileListDeps holds dependencies for GetProfileList.
type GetProfileListDeps struct {
	ProfileStore ProfileReader
}

// QueryGetProfileList returns one page of profiles with the given role.
// PRE: query.Params comes from listutil.Parse
// POST: Page is clamped to the last page when the requested one is past the end
func QueryGetProfileList(ctx context.Context, query GetProfileListQuery, deps GetProfileListDeps) (GetProfileListResult, error) {
	filter := profile.ListFilter{
		Role:   query.Role,
		Search: query.Params.Search,
		Sort:   query.Params.Sort,
		Dir:    query.Params.Dir,
	}
	total, err := deps.ProfileStore.Count(ctx, filter)
	if err != nil {
		return GetProfileListResult{}, fmt.Errorf("count profiles: %w", err)
	}
	page := listutil.NewPageInfo(query.Params.Page, query.Params.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	profiles, err := deps.ProfileStore.List(ctx, filter)
	if err != nil {
		return GetProfileListResult{}, fmt.Errorf("list profiles: %w", err)
	}
	params := query.Params
	params.Page = page.Page
	return GetProfileListResult{Profiles: profiles, Page: page, Params: params}, nil
}
