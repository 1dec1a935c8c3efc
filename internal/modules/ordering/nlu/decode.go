package nlu

import (
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
)

// defaultConfidence applies when a provider omits the field; strict-schema
// providers always send it.
const defaultConfidence = 1.0

type wireCustomizations struct {
	Milk      *string `json:"milk"`
	Syrup     *string `json:"syrup"`
	Sweetener *string `json:"sweetener"`
	Topping   *string `json:"topping"`
}

func (w *wireCustomizations) domain() types.Customizations {
	if w == nil {
		return types.Customizations{}
	}
	var c types.Customizations
	set := func(k types.CustomizationKey, v *string) {
		if v != nil {
			c = c.With(k, *v)
		}
	}
	set(types.CustomMilk, w.Milk)
	set(types.CustomSyrup, w.Syrup)
	set(types.CustomSweetener, w.Sweetener)
	set(types.CustomTopping, w.Topping)
	return c
}

type wireItem struct {
	DrinkName      string              `json:"drink_name"`
	Size           *string             `json:"size"`
	Quantity       *int                `json:"quantity"`
	Customizations *wireCustomizations `json:"customizations"`
	Confidence     *float64            `json:"confidence"`
}

func (w wireItem) domain() steps.ExtractedOrderItem {
	it := steps.ExtractedOrderItem{
		DrinkName:      strings.TrimSpace(w.DrinkName),
		Customizations: w.Customizations.domain(),
		Confidence:     confidence(w.Confidence),
	}
	if w.Size != nil {
		it.Size = strings.TrimSpace(*w.Size)
	}
	if w.Quantity != nil {
		it.Quantity = *w.Quantity
	}
	return it
}

type wireChanges struct {
	Quantity             *int                `json:"quantity"`
	Size                 *string             `json:"size"`
	AddCustomizations    *wireCustomizations `json:"add_customizations"`
	RemoveCustomizations []string            `json:"remove_customizations"`
}

type wireModification struct {
	Action     string      `json:"action"`
	ItemIndex  *int        `json:"item_index"`
	DrinkName  *string     `json:"drink_name"`
	Changes    wireChanges `json:"changes"`
	Confidence *float64    `json:"confidence"`
}

func (w wireModification) domain() steps.ExtractedModification {
	m := steps.ExtractedModification{
		Action:     steps.ModificationAction(strings.ToLower(strings.TrimSpace(w.Action))),
		ItemIndex:  w.ItemIndex,
		Confidence: confidence(w.Confidence),
		Changes: steps.ModificationChanges{
			Quantity:          w.Changes.Quantity,
			AddCustomizations: w.Changes.AddCustomizations.domain(),
		},
	}
	if m.Action != steps.ModificationModify && m.Action != steps.ModificationRemove {
		m.Action = ""
	}
	if w.DrinkName != nil {
		m.DrinkName = strings.TrimSpace(*w.DrinkName)
	}
	if w.Changes.Size != nil {
		m.Changes.Size = strings.TrimSpace(*w.Changes.Size)
	}
	for _, raw := range w.Changes.RemoveCustomizations {
		if k, ok := types.ParseCustomizationKey(raw); ok {
			m.Changes.RemoveCustomizations = append(m.Changes.RemoveCustomizations, k)
		}
	}
	return m
}

type wireAction struct {
	Type          string             `json:"type"`
	DrinkName     *string            `json:"drink_name"`
	Query         *string            `json:"query"`
	Items         []wireItem         `json:"items"`
	Modifications []wireModification `json:"modifications"`
}

type wireOutput struct {
	Reply            string       `json:"reply"`
	Intent           string       `json:"intent"`
	SuggestedActions []wireAction `json:"suggested_actions"`
	ExtractedOrder   *wireItem    `json:"extracted_order"`
}

func confidence(v *float64) float64 {
	if v == nil {
		return defaultConfidence
	}
	return *v
}

// Decode parses a model response into the turn's NLU output. Unknown action
// types are dropped and an unknown intent label becomes unknown.
func Decode(text string) (steps.NLUOutput, error) {
	raw := stripFences(text)
	if raw == "" {
		return steps.NLUOutput{}, fmt.Errorf("empty model response")
	}
	var w wireOutput
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return steps.NLUOutput{}, fmt.Errorf("decode model response: %w", err)
	}

	out := steps.NLUOutput{
		Reply:  strings.TrimSpace(w.Reply),
		Intent: steps.ParseIntent(w.Intent),
	}
	for _, a := range w.SuggestedActions {
		typ, ok := steps.ParseActionType(a.Type)
		if !ok {
			continue
		}
		sa := steps.SuggestedAction{Type: typ}
		if a.DrinkName != nil {
			sa.DrinkName = strings.TrimSpace(*a.DrinkName)
		}
		if a.Query != nil {
			sa.Query = strings.TrimSpace(*a.Query)
		}
		for _, it := range a.Items {
			sa.Items = append(sa.Items, it.domain())
		}
		for _, m := range a.Modifications {
			sa.Modifications = append(sa.Modifications, m.domain())
		}
		out.Actions = append(out.Actions, sa)
	}
	if w.ExtractedOrder != nil && strings.TrimSpace(w.ExtractedOrder.DrinkName) != "" {
		legacy := w.ExtractedOrder.domain()
		out.LegacyItem = &legacy
	}
	return out, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
