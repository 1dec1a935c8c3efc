package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/barista-backend/internal/domain"
)

//go:embed menu.yaml
var defaultMenu []byte

type menuFile struct {
	Currency string      `yaml:"currency"`
	Drinks   []drinkSpec `yaml:"drinks"`
}

type drinkSpec struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	PriceCents  int64              `yaml:"price_cents"`
	Currency    string             `yaml:"currency"`
	Supports    types.Capabilities `yaml:"supports"`
}

// Default returns the drinks from the embedded menu.
func Default() ([]*types.Drink, error) {
	return Parse(defaultMenu)
}

// LoadFile reads a menu file in the same format as the embedded default.
func LoadFile(path string) ([]*types.Drink, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) ([]*types.Drink, error) {
	var mf menuFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	defCurrency := strings.TrimSpace(mf.Currency)
	if defCurrency == "" {
		defCurrency = "USD"
	}
	seen := map[string]bool{}
	out := make([]*types.Drink, 0, len(mf.Drinks))
	for i, d := range mf.Drinks {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("menu entry %d: missing name", i)
		}
		if d.PriceCents < 0 {
			return nil, fmt.Errorf("menu entry %q: negative price", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("menu entry %q: duplicate name", name)
		}
		seen[key] = true
		cur := strings.TrimSpace(d.Currency)
		if cur == "" {
			cur = defCurrency
		}
		out = append(out, &types.Drink{
			Name:         name,
			Description:  strings.TrimSpace(d.Description),
			PriceAmount:  d.PriceCents,
			Currency:     cur,
			Capabilities: d.Supports,
		})
	}
	return out, nil
}
