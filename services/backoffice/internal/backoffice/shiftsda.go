package backoffice

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/appetiteclub/backoffice/services/backoffice/internal/query"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/remote"
	"github.com/appetiteclub/backoffice/services/backoffice/internal/roster"
)

// ShiftInput is the create and update payload for a shift.
type ShiftInput struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	ManagerID string   `json:"managerId"`
	StaffIDs  []string `json:"staffIds"`
	Note      string   `json:"note"`
}

type ShiftDataAccess struct {
	client *remote.Client
	cache  *query.Cache
}

func NewShiftDataAccess(client *remote.Client, cache *query.Cache) *ShiftDataAccess {
	return &ShiftDataAccess{client: client, cache: cache}
}

// ListShifts returns the shifts starting in [from, to).
func (da *ShiftDataAccess) ListShifts(ctx context.Context, from, to time.Time) ([]roster.Shift, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("shift client not configured")
	}

	params := url.Values{}
	params.Set("from", from.Format(time.RFC3339))
	params.Set("to", to.Format(time.RFC3339))
	path := "/shifts?" + params.Encode()

	return query.Load(ctx, da.cache, query.ShiftsBetween(from, to), func(ctx context.Context) ([]roster.Shift, error) {
		return remote.Get[[]roster.Shift](ctx, da.client, path)
	})
}

func (da *ShiftDataAccess) CreateShift(ctx context.Context, in ShiftInput) (roster.Shift, error) {
	if da == nil || da.client == nil {
		return roster.Shift{}, fmt.Errorf("shift client not configured")
	}
	return remote.Post[roster.Shift](ctx, da.client, "/shifts", in)
}

func (da *ShiftDataAccess) UpdateShift(ctx context.Context, id string, in ShiftInput) (roster.Shift, error) {
	if da == nil || da.client == nil {
		return roster.Shift{}, fmt.Errorf("shift client not configured")
	}
	return remote.Put[roster.Shift](ctx, da.client, fmt.Sprintf("/shifts/%s", url.PathEscape(id)), in)
}

func (da *ShiftDataAccess) DeleteShift(ctx context.Context, id string) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("shift client not configured")
	}
	return remote.Delete(ctx, da.client, fmt.Sprintf("/shifts/%s", url.PathEscape(id)))
}
