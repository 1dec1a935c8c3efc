package menu

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/barista-backend/internal/domain/ordering"
)

// Capabilities lists the customization axes a drink accepts.
type Capabilities struct {
	Milk      bool `gorm:"column:supports_milk;not null;default:false" json:"milk" yaml:"milk"`
	Syrup     bool `gorm:"column:supports_syrup;not null;default:false" json:"syrup" yaml:"syrup"`
	Sweetener bool `gorm:"column:supports_sweetener;not null;default:false" json:"sweetener" yaml:"sweetener"`
	Topping   bool `gorm:"column:supports_topping;not null;default:false" json:"topping" yaml:"topping"`
	Size      bool `gorm:"column:supports_size;not null;default:false" json:"size" yaml:"size"`
}

func (c Capabilities) Supports(k ordering.CustomizationKey) bool {
	switch k {
	case ordering.CustomMilk:
		return c.Milk
	case ordering.CustomSyrup:
		return c.Syrup
	case ordering.CustomSweetener:
		return c.Sweetener
	case ordering.CustomTopping:
		return c.Topping
	}
	return false
}

// Filter drops customizations the drink does not accept.
func (c Capabilities) Filter(in ordering.Customizations) ordering.Customizations {
	out := in
	for _, k := range ordering.AllCustomizationKeys() {
		if !c.Supports(k) {
			out = out.Without(k)
		}
	}
	return out
}

// Names returns the supported axes in display order.
func (c Capabilities) Names() []string {
	out := make([]string, 0, 5)
	if c.Size {
		out = append(out, "size")
	}
	for _, k := range ordering.AllCustomizationKeys() {
		if c.Supports(k) {
			out = append(out, string(k))
		}
	}
	return out
}

type Drink struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description;type:text;not null;default:''" json:"description"`
	PriceAmount int64     `gorm:"column:price_amount;not null" json:"price_amount"`
	Currency    string    `gorm:"column:currency;not null;default:'USD'" json:"currency"`

	Capabilities Capabilities `gorm:"embedded" json:"capabilities"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Drink) TableName() string { return "drink" }

func (d *Drink) Price() ordering.Money {
	return ordering.Money{Amount: d.PriceAmount, Currency: d.Currency}
}

// EmbeddingText is the text indexed for semantic search.
func (d *Drink) EmbeddingText() string {
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		return d.Name
	}
	return d.Name + ". " + desc
}
