package ordering

// Limits holds the thresholds enforced by the order and conversation aggregates
// and by the extraction filter.
type Limits struct {
	MaxMessages      int     `json:"max_messages" yaml:"max_messages"`
	MaxOrderQuantity int     `json:"max_order_quantity" yaml:"max_order_quantity"`
	MaxItemQuantity  int     `json:"max_item_quantity" yaml:"max_item_quantity"`
	ConfidenceFloor  float64 `json:"confidence_floor" yaml:"-"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxMessages:      50,
		MaxOrderQuantity: 20,
		MaxItemQuantity:  10,
		ConfidenceFloor:  0.5,
	}
}

// Normalized replaces unset fields with their defaults.
func (l Limits) Normalized() Limits {
	d := DefaultLimits()
	if l.MaxMessages <= 0 {
		l.MaxMessages = d.MaxMessages
	}
	if l.MaxOrderQuantity <= 0 {
		l.MaxOrderQuantity = d.MaxOrderQuantity
	}
	if l.MaxItemQuantity <= 0 {
		l.MaxItemQuantity = d.MaxItemQuantity
	}
	if l.ConfidenceFloor <= 0 {
		l.ConfidenceFloor = d.ConfidenceFloor
	}
	return l
}
