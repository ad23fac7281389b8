package fundgrube

import (
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// ToItems converts API postings into domain items for the given store.
// Postings without an id cannot be deduplicated and are dropped.
func ToItems(store Store, postings []Posting) []domain.Item {
	items := make([]domain.Item, 0, len(postings))
	for i := range postings {
		if postings[i].PostingID == "" {
			continue
		}
		items = append(items, toItem(store, &postings[i]))
	}
	return items
}

func toItem(store Store, p *Posting) domain.Item {
	it := domain.Item{
		ID:              string(p.PostingID),
		PimID:           string(p.PimID),
		Title:           p.Name,
		Text:            p.PostingText,
		Price:           float64(p.Price),
		ShippingCost:    float64(p.ShippingCost),
		DiscountPercent: float64(p.DiscountInPercent),
		OriginalURL:     string(p.OriginalURL),
		Store:           store.Name,
		StoreURL:        store.BaseURL,
	}

	if p.Outlet != nil {
		it.OutletID = string(p.Outlet.ID)
		it.OutletName = p.Outlet.Name
	}

	return it
}
