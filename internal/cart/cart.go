package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

// MaxLineQuantity bounds a single line so quantities can never wrap.
const MaxLineQuantity = 999

// Product is the catalog data a line keeps from the moment it was added.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

func ProductFrom(p models.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Category: p.Category}
}

type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order. No line ever has quantity below 1.
type Cart struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) indexOf(id uuid.UUID) int {
	for i, l := range c.Lines {
		if l.Product.ID == id {
			return i
		}
	}
	return -1
}

func clampQuantity(q int) int {
	if q > MaxLineQuantity {
		return MaxLineQuantity
	}
	return q
}

// Add merges into an existing line for the same product or appends a new
// one. Quantities below 1 count as 1; a line saturates at MaxLineQuantity.
func (c *Cart) Add(p Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	quantity = clampQuantity(quantity)
	if i := c.indexOf(p.ID); i >= 0 {
		c.Lines[i].Quantity = clampQuantity(c.Lines[i].Quantity + quantity)
		return
	}
	c.Lines = append(c.Lines, Line{Product: p, Quantity: quantity})
}

// UpdateQuantity sets the quantity of a line; below 1 removes it. Unknown
// ids are ignored.
func (c *Cart) UpdateQuantity(id uuid.UUID, quantity int) {
	if quantity < 1 {
		c.Remove(id)
		return
	}
	if i := c.indexOf(id); i >= 0 {
		c.Lines[i].Quantity = clampQuantity(quantity)
	}
}

func (c *Cart) Remove(id uuid.UUID) {
	if i := c.indexOf(id); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type Snapshot struct {
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Snapshot copies the lines so the caller cannot mutate the cart through it.
func (c *Cart) Snapshot() Snapshot {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Snapshot{Lines: lines, ItemCount: c.ItemCount(), Total: c.Total()}
}
