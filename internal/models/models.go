package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerKind distinguishes the two identity kinds a cart can belong to.
type OwnerKind string

const (
	OwnerKindUser  OwnerKind = "user"
	OwnerKindGuest OwnerKind = "guest"
)

// Owner identifies a cart owner: an authenticated user or an anonymous guest.
// The kind is resolved once at the request boundary and carried through the
// business logic, so nothing downstream re-tests which kind it is dealing with.
type Owner struct {
	Kind OwnerKind
	ID   uuid.UUID
}

func UserOwner(id uuid.UUID) Owner  { return Owner{Kind: OwnerKindUser, ID: id} }
func GuestOwner(id uuid.UUID) Owner { return Owner{Kind: OwnerKindGuest, ID: id} }

// User holds the minimal account data needed for order ownership and
// notification context.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Seller represents a product vendor.
type Seller struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Image     string    `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product is a sellable catalog entry. A product carries either a flat Stock
// count or a set of variants, never both.
type Product struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	SellerID     uuid.UUID        `db:"seller_id" json:"seller_id"`
	Name         string           `db:"name" json:"name"`
	Slug         string           `db:"slug" json:"slug"`
	Desc         string           `db:"description" json:"desc"`
	PriceOld     *decimal.Decimal `db:"price_old" json:"price_old,omitempty"`
	PriceCurrent decimal.Decimal  `db:"price_current" json:"price_current"`
	Stock        int              `db:"stock" json:"stock"`
	Image1       string           `db:"image1" json:"image1"`
	Image2       string           `db:"image2" json:"image2,omitempty"`
	Image3       string           `db:"image3" json:"image3,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// Variant is a size/color variation of a product with its own stock and price.
type Variant struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ProductID uuid.UUID       `db:"product_id" json:"product_id"`
	Size      *string         `db:"size" json:"size,omitempty"`
	Color     *string         `db:"color" json:"color,omitempty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	Image     string          `db:"image" json:"image"`
}

// EffectiveStock returns the variant stock when a variant is selected, else
// the product's flat stock.
func EffectiveStock(p *Product, v *Variant) int {
	if v != nil {
		return v.Stock
	}
	return p.Stock
}

// EffectivePrice returns the variant price when a variant is selected, else
// the product's current price.
func EffectivePrice(p *Product, v *Variant) decimal.Decimal {
	if v != nil {
		return v.Price
	}
	return p.PriceCurrent
}

// CartLine is a quantity of a product (and optionally one of its variants)
// held by an owner. While OrderID is nil the line is live cart state; once it
// is claimed by a checkout the line is immutable order history.
type CartLine struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	GuestID   *uuid.UUID `db:"guest_id" json:"guest_id,omitempty"`
	ProductID uuid.UUID  `db:"product_id" json:"product_id"`
	VariantID *uuid.UUID `db:"variant_id" json:"variant_id,omitempty"`
	Quantity  int        `db:"quantity" json:"quantity"`
	OrderID   *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ShippingAddress belongs to a user; its fields are copied onto orders at
// checkout so later edits never alter order history.
type ShippingAddress struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Address   string    `db:"address" json:"address"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	Country   string    `db:"country" json:"country"`
	Zipcode   string    `db:"zipcode" json:"zipcode"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Payment statuses. Successful, Cancelled and Failed are terminal.
const (
	PaymentStatusPending    = "Pending"
	PaymentStatusProcessing = "Processing"
	PaymentStatusSuccessful = "Successful"
	PaymentStatusCancelled  = "Cancelled"
	PaymentStatusFailed     = "Failed"
)

// Delivery statuses.
const (
	DeliveryStatusPending  = "Pending"
	DeliveryStatusPacking  = "Packing"
	DeliveryStatusShipping = "Shipping"
	DeliveryStatusArriving = "Arriving"
	DeliveryStatusSuccess  = "Success"
)

// IsTerminalPaymentStatus reports whether no further automatic payment
// transition is expected.
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusSuccessful, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// Order is created at checkout. Shipping fields are a denormalized snapshot of
// the address used; the total is always derived from the claimed lines.
type Order struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	TxRef          string     `db:"tx_ref" json:"tx_ref"`
	PaymentStatus  string     `db:"payment_status" json:"payment_status"`
	DeliveryStatus string     `db:"delivery_status" json:"delivery_status"`
	CouponCode     *string    `db:"coupon_code" json:"coupon_code,omitempty"`
	DateDelivered  *time.Time `db:"date_delivered" json:"date_delivered,omitempty"`

	ShippingName    string `db:"shipping_name" json:"shipping_name"`
	ShippingEmail   string `db:"shipping_email" json:"shipping_email"`
	ShippingPhone   string `db:"shipping_phone" json:"shipping_phone"`
	ShippingAddress string `db:"shipping_address" json:"shipping_address"`
	ShippingCity    string `db:"shipping_city" json:"shipping_city"`
	ShippingState   string `db:"shipping_state" json:"shipping_state"`
	ShippingCountry string `db:"shipping_country" json:"shipping_country"`
	ShippingZipcode string `db:"shipping_zipcode" json:"shipping_zipcode"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProductSnapshot is the slice of product data embedded in cart and order views.
type ProductSnapshot struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	PriceCurrent decimal.Decimal `json:"price_current"`
	Image        string          `json:"image"`
	SellerName   string          `json:"seller_name"`
	SellerSlug   string          `json:"seller_slug"`
}

// VariantSnapshot is the slice of variant data embedded in cart and order views.
type VariantSnapshot struct {
	ID    uuid.UUID       `json:"id"`
	Size  *string         `json:"size,omitempty"`
	Color *string         `json:"color,omitempty"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
	Image string          `json:"image"`
}

// CartLineView is a cart line resolved against its product and variant.
type CartLineView struct {
	ID       uuid.UUID        `json:"id"`
	Product  ProductSnapshot  `json:"product"`
	Variant  *VariantSnapshot `json:"variant,omitempty"`
	Quantity int              `json:"quantity"`
	Total    decimal.Decimal  `json:"total"`
}

// OrderItemView is a claimed line inside an order view.
type OrderItemView struct {
	Product  ProductSnapshot  `json:"product"`
	Variant  *VariantSnapshot `json:"variant,omitempty"`
	Quantity int              `json:"quantity"`
	Total    decimal.Decimal  `json:"total"`
}

// OrderView is an order resolved with its items and derived total.
type OrderView struct {
	TxRef          string          `json:"tx_ref"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus string          `json:"delivery_status"`
	DateDelivered  *time.Time      `json:"date_delivered,omitempty"`
	Shipping       ShippingDetails `json:"shipping_details"`
	Items          []OrderItemView `json:"order_items"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ShippingDetails is the snapshot shape exposed on order views.
type ShippingDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zipcode string `json:"zipcode"`
}

// ShippingDetailsFromAddress copies the address fields into the snapshot shape.
func ShippingDetailsFromAddress(a *ShippingAddress) ShippingDetails {
	return ShippingDetails{
		Name:    a.Name,
		Email:   a.Email,
		Phone:   a.Phone,
		Address: a.Address,
		City:    a.City,
		State:   a.State,
		Country: a.Country,
		Zipcode: a.Zipcode,
	}
}

// OrderTotal sums the item totals.
func OrderTotal(items []OrderItemView) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}
