package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `gorm:"not null;default:''"          json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"price"`
	Image       string          `gorm:"not null;default:''"          json:"image"`
	Category    string          `gorm:"index;not null;default:''"    json:"category"`
	Featured    bool            `gorm:"index;not null;default:false" json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index"               json:"user_id,omitempty"`
	FirstName   string          `gorm:"not null"                      json:"first_name"`
	LastName    string          `gorm:"not null"                      json:"last_name"`
	Email       string          `gorm:"not null"                      json:"email"`
	Address     string          `gorm:"not null"                      json:"address"`
	City        string          `gorm:"not null"                      json:"city"`
	ZipCode     string          `gorm:"not null"                      json:"zip_code"`
	Country     string          `gorm:"not null"                      json:"country"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"total_amount"`
	Status      OrderStatus     `gorm:"type:varchar(16);not null"     json:"status"`
	Version     int             `gorm:"not null;default:1"            json:"version"`
	CreatedAt   time.Time       `gorm:"index"                         json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                 json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"             json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"                   json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"          json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is the historical line value; it never consults the live product.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Shipping struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"             json:"id"`
	OrderID           uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"   json:"order_id"`
	TrackingNumber    string         `gorm:"uniqueIndex;not null"             json:"tracking_number"`
	Status            ShippingStatus `gorm:"type:varchar(16);not null"        json:"status"`
	EstimatedDelivery time.Time      `gorm:"not null"                         json:"estimated_delivery"`
	ShippedAt         *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`
	Version           int            `gorm:"not null;default:1"               json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (s *Shipping) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Shipping) TableName() string {
	return "shipping"
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"  json:"username"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	Role         string    `gorm:"not null"              json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// All lists every table in migration order.
func All() []any {
	return []any{&Product{}, &User{}, &Order{}, &OrderItem{}, &Shipping{}}
}
