package domain

import "time"

// CartLineItem is one product entry in a shopper's cart. Each line carries
// its own quantity and selection flag; selection drives which lines a
// checkout covers.
type CartLineItem struct {
	ID        string    `json:"id" bson:"id"`
	ProductID int64     `json:"product_id" bson:"product_id"`
	Name      string    `json:"name" bson:"name"`
	UnitPrice int64     `json:"unit_price" bson:"unit_price"` // smallest currency unit
	ImageRef  string    `json:"image_ref" bson:"image_ref"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	ShopID    string    `json:"shop_id" bson:"shop_id"`
	Selected  bool      `json:"selected" bson:"selected"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// ProductMeta is the display data captured when a product is added to the
// cart. Prices are stock-kept in the smallest currency unit.
type ProductMeta struct {
	Name      string
	UnitPrice int64
	ImageRef  string
	ShopID    string
}

// ShopSelection is the tri-state selection flag of a shop group.
type ShopSelection string

const (
	ShopSelectionNone ShopSelection = "NONE"
	ShopSelectionSome ShopSelection = "SOME"
	ShopSelectionAll  ShopSelection = "ALL"
)

// ShopGroup is the derived per-seller partition of cart lines. It is always
// recomputed from the line items, never stored.
type ShopGroup struct {
	ShopID        string         `json:"shop_id"`
	ShopName      string         `json:"shop_name,omitempty"`
	Items         []CartLineItem `json:"items"`
	SelectedCount int            `json:"selected_count"`
	Selection     ShopSelection  `json:"selection"`
}
