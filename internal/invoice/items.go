package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Item is one cart line as it appears on the invoice. Values are kept in
// their stored textual form.
type Item struct {
	Name     string
	Quantity string
	Price    string
}

// ParseItems extracts the cart lines from a stored payload, preserving their
// order. A payload that is not JSON, or whose items key is not a list,
// yields no items; entries that are not objects are skipped.
func ParseItems(payload string) []Item {
	var cart struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(payload), &cart); err != nil {
		return nil
	}

	items := make([]Item, 0, len(cart.Items))
	for _, raw := range cart.Items {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()

		var fields map[string]any
		if err := dec.Decode(&fields); err != nil || fields == nil {
			continue
		}
		items = append(items, Item{
			Name:     text(fields["nombre"]),
			Quantity: text(fields["cantidad"]),
			Price:    text(fields["precio"]),
		})
	}
	return items
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
