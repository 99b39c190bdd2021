package order

// QueryOrdersModel represents filter parameters for querying orders.
// UserID scopes the query to a single owner; admin listings leave it zero
// and may filter by an order number substring instead.
type QueryOrdersModel struct {
	Ids         []int64  `json:"ids,omitempty"`
	UserID      int64    `json:"userId,omitempty"`
	Status      *Status  `json:"status,omitempty"`
	Statuses    []Status `json:"statuses,omitempty"`
	OrderNoLike string   `json:"orderNoLike,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
}
