package steps

import (
	"context"
	"strings"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/observability"
	"github.com/yungbote/barista-backend/internal/platform/dbctx"
	"github.com/yungbote/barista-backend/internal/platform/logger"
)

// ResolveStrategy names the cascade step that produced a match.
type ResolveStrategy string

const (
	StrategyNone             ResolveStrategy = "none"
	StrategyCandidateExact   ResolveStrategy = "candidate_exact"
	StrategyCandidateSubstr  ResolveStrategy = "candidate_substring"
	StrategyCandidateAlias   ResolveStrategy = "candidate_alias"
	StrategyMenuExact        ResolveStrategy = "menu_exact"
	StrategyMenuAlias        ResolveStrategy = "menu_alias"
	StrategyMenuNormalized   ResolveStrategy = "menu_normalized"
	StrategySemantic         ResolveStrategy = "semantic"
)

// A semantic match must score strictly above this to be accepted.
const semanticAcceptScoreAbove = 0.7

// menuNameSuffixes are the trailing words a plural "s" may be stripped back to.
var menuNameSuffixes = []string{
	"latte",
	"mocha",
	"cappuccino",
	"americano",
	"espresso",
	"macchiato",
	"frappuccino",
	"brew",
	"coffee",
	"tea",
	"chocolate",
	"white",
	"croissant",
}

// drinkAliases maps localized and colloquial names to canonical menu names.
var drinkAliases = map[string]string{
	"café con leche":     "Latte",
	"cafe con leche":     "Latte",
	"caffe latte":        "Latte",
	"café latte":         "Latte",
	"cafe latte":         "Latte",
	"milchkaffee":        "Latte",
	"capuchino":          "Cappuccino",
	"capuccino":          "Cappuccino",
	"cappucino":          "Cappuccino",
	"moca":               "Caffè Mocha",
	"moka":               "Caffè Mocha",
	"mocha":              "Caffè Mocha",
	"caffe mocha":        "Caffè Mocha",
	"cafe mocha":         "Caffè Mocha",
	"café americano":     "Americano",
	"cafe americano":     "Americano",
	"caffè americano":    "Americano",
	"café solo":          "Espresso",
	"expreso":            "Espresso",
	"expresso":           "Espresso",
	"té verde":           "Green Tea",
	"te verde":           "Green Tea",
	"thé vert":           "Green Tea",
	"matcha":             "Matcha Latte",
	"chai":               "Chai Tea Latte",
	"chai latte":         "Chai Tea Latte",
	"chocolate caliente": "Hot Chocolate",
	"chocolat chaud":     "Hot Chocolate",
	"heiße schokolade":   "Hot Chocolate",
	"hot cocoa":          "Hot Chocolate",
	"café helado":        "Iced Coffee",
	"cafe helado":        "Iced Coffee",
	"café glacé":         "Iced Coffee",
	"café frío":          "Cold Brew",
	"cafe frio":          "Cold Brew",
	"frapuccino":         "Caramel Frappuccino",
	"frappe":             "Caramel Frappuccino",
	"flat-white":         "Flat White",
}

// NormalizeDrinkName lowercases and trims name and strips a trailing plural "s"
// when the singular ends with a known menu-name word.
func NormalizeDrinkName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(n), " ")
	if !strings.HasSuffix(n, "s") || len(n) < 2 {
		return n
	}
	singular := strings.TrimSuffix(n, "s")
	for _, suf := range menuNameSuffixes {
		if strings.HasSuffix(singular, suf) {
			return singular
		}
	}
	return n
}

func translateDrinkName(normalized string) (string, bool) {
	canon, ok := drinkAliases[normalized]
	return canon, ok
}

type DrinkResolver struct {
	Menu    MenuStore
	Search  SemanticSearch
	Log     *logger.Logger
	Metrics *observability.Metrics
}

// Resolve maps free text to a menu drink. A nil drink means "skip this item";
// store and search failures are logged and treated as misses.
func (r *DrinkResolver) Resolve(ctx context.Context, name string, candidates []*types.Drink) (*types.Drink, ResolveStrategy) {
	d, strategy := r.resolve(ctx, name, candidates)
	r.Metrics.IncResolverStrategy(string(strategy))
	if d == nil && r.Log != nil {
		r.Log.Debug("drink not resolved", "name", name, "candidates", len(candidates))
	}
	return d, strategy
}

func (r *DrinkResolver) resolve(ctx context.Context, name string, candidates []*types.Drink) (*types.Drink, ResolveStrategy) {
	raw := strings.TrimSpace(name)
	normalized := NormalizeDrinkName(raw)
	if normalized == "" {
		return nil, StrategyNone
	}

	for _, c := range candidates {
		if c != nil && strings.ToLower(c.Name) == normalized {
			return c, StrategyCandidateExact
		}
	}
	for _, c := range candidates {
		if c == nil || strings.TrimSpace(c.Name) == "" {
			continue
		}
		cn := strings.ToLower(c.Name)
		if strings.Contains(cn, normalized) || strings.Contains(normalized, cn) {
			return c, StrategyCandidateSubstr
		}
	}
	translated, hasAlias := translateDrinkName(normalized)
	if hasAlias {
		for _, c := range candidates {
			if c != nil && strings.EqualFold(c.Name, translated) {
				return c, StrategyCandidateAlias
			}
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	if r.Menu != nil {
		if d := r.findByName(dbc, raw); d != nil {
			return d, StrategyMenuExact
		}
		if hasAlias {
			if d := r.findByName(dbc, translated); d != nil {
				return d, StrategyMenuAlias
			}
		}
		if normalized != strings.ToLower(raw) {
			if d := r.findByName(dbc, normalized); d != nil {
				return d, StrategyMenuNormalized
			}
		}
	}

	if r.Search != nil {
		matches, err := r.Search.FindSimilar(ctx, raw, 1)
		if err != nil {
			if r.Log != nil {
				r.Log.Warn("semantic drink lookup failed", "name", raw, "error", err)
			}
			return nil, StrategyNone
		}
		if len(matches) > 0 && matches[0].Drink != nil && matches[0].Score > semanticAcceptScoreAbove {
			return matches[0].Drink, StrategySemantic
		}
	}
	return nil, StrategyNone
}

func (r *DrinkResolver) findByName(dbc dbctx.Context, name string) *types.Drink {
	d, err := r.Menu.FindByName(dbc, name)
	if err != nil {
		if r.Log != nil {
			r.Log.Warn("menu lookup failed", "name", name, "error", err)
		}
		return nil
	}
	return d
}
