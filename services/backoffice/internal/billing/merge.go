package billing

// MergeRequest is the payload the remote API expects for a merge.
type MergeRequest struct {
	ReservationID string   `json:"reservationId"`
	OrderIDs      []string `json:"orderIds"`
}

// ValidateMerge guards a merge before it is sent. The remote API repeats the
// delivered check authoritatively; its answer wins.
func ValidateMerge(reservationID string, candidates []Order) (MergeRequest, error) {
	ids := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]Order, 0, len(candidates))
	for _, order := range candidates {
		if _, ok := seen[order.ID]; ok {
			continue
		}
		seen[order.ID] = struct{}{}
		ids = append(ids, order.ID)
		unique = append(unique, order)
	}

	if len(unique) < 2 {
		return MergeRequest{}, ErrInsufficientOrders
	}

	for _, order := range unique {
		if order.ReservationID != "" && reservationID != "" && order.ReservationID != reservationID {
			return MergeRequest{}, invalid(ErrForeignOrder, order.ID)
		}
		if !order.AllDelivered() {
			return MergeRequest{}, invalid(ErrNotAllDelivered, order.ID)
		}
	}

	return MergeRequest{
		ReservationID: reservationID,
		OrderIDs:      ids,
	}, nil
}
