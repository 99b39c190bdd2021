package product

// ListPurchasableModel filters the purchasable catalog listing used by the
// recommendation fallback. Results are ordered by created_at desc, id desc.
type ListPurchasableModel struct {
	ExcludeIds      []string `json:"excludeIds,omitempty"`
	CategoryID      *int64   `json:"categoryId,omitempty"`
	ExcludeCategory *int64   `json:"excludeCategory,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}
