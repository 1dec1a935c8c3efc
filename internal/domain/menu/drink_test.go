package menu

import (
	"testing"

	"github.com/yungbote/barista-backend/internal/domain/ordering"
)

func TestCapabilitiesFilter(t *testing.T) {
	caps := Capabilities{Milk: true, Size: true}
	in := ordering.Customizations{Milk: "oat", Syrup: "vanilla", Topping: "foam"}
	got := caps.Filter(in)
	if got != (ordering.Customizations{Milk: "oat"}) {
		t.Fatalf("unexpected filtered customizations %+v", got)
	}
	names := caps.Names()
	if len(names) != 2 || names[0] != "size" || names[1] != "milk" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestEmbeddingText(t *testing.T) {
	d := &Drink{Name: "Latte", Description: "Espresso with steamed milk"}
	if got := d.EmbeddingText(); got != "Latte. Espresso with steamed milk" {
		t.Fatalf("unexpected embedding text %q", got)
	}
	d.Description = ""
	if got := d.EmbeddingText(); got != "Latte" {
		t.Fatalf("unexpected embedding text %q", got)
	}
}
