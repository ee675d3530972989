package order

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greencrop/storefront/internal/entity"
	"github.com/greencrop/storefront/pkg/errorbank"
)

// PayloadKind tells how the cart payload of a checkout is handled.
type PayloadKind int

const (
	// PayloadJSON is the quick checkout: the payload must be a JSON object;
	// customer details are read from its top level and the payload is stored
	// re-serialized.
	PayloadJSON PayloadKind = iota
	// PayloadOpaque is the checkout form: the payload is stored verbatim and
	// every customer detail must be supplied.
	PayloadOpaque
)

func (k PayloadKind) String() string {
	if k == PayloadOpaque {
		return "opaque"
	}
	return "json"
}

// Field names reported back when a checkout is rejected.
const (
	FieldName          = "nombre"
	FieldEmail         = "email"
	FieldPhone         = "teléfono"
	FieldAddress       = "dirección"
	FieldPaymentMethod = "método de pago"
	FieldCart          = "carrito"
	FieldTotal         = "total"
)

// Snapshot is the customer data copied onto the order at submission.
type Snapshot struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	PaymentMethod string
}

// CheckoutRequest is the single input of the pipeline. OwnerID is nil for
// guest checkouts.
type CheckoutRequest struct {
	OwnerID     *int64
	Snapshot    Snapshot
	Total       string
	Payload     string
	PayloadKind PayloadKind
}

// normalize validates the request and builds the order row to insert.
func (r CheckoutRequest) normalize() (*entity.Order, error) {
	var missing []string
	snapshot := r.Snapshot
	payload := r.Payload

	switch r.PayloadKind {
	case PayloadOpaque:
		for _, f := range []struct{ value, name string }{
			{snapshot.Name, FieldName},
			{snapshot.Email, FieldEmail},
			{snapshot.Phone, FieldPhone},
			{snapshot.Address, FieldAddress},
			{snapshot.PaymentMethod, FieldPaymentMethod},
			{payload, FieldCart},
		} {
			if strings.TrimSpace(f.value) == "" {
				missing = append(missing, f.name)
			}
		}
	default:
		lifted, canonical, ok := canonicalCart(payload)
		if !ok {
			missing = append(missing, FieldCart)
			break
		}
		snapshot = snapshot.fill(lifted)
		payload = canonical
	}

	total, err := decimal.NewFromString(strings.TrimSpace(r.Total))
	if err != nil || total.IsNegative() {
		missing = append(missing, FieldTotal)
	}

	if len(missing) > 0 {
		return nil, errorbank.Validation(missing)
	}

	return &entity.Order{
		OwnerID:         r.OwnerID,
		CustomerName:    snapshot.Name,
		CustomerEmail:   snapshot.Email,
		CustomerPhone:   snapshot.Phone,
		CustomerAddress: snapshot.Address,
		PaymentMethod:   snapshot.PaymentMethod,
		Total:           total,
		Status:          entity.OrderStatusPending,
		Payload:         payload,
	}, nil
}

// fill copies values from other into the blank fields of s.
func (s Snapshot) fill(other Snapshot) Snapshot {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) != "" {
			return a
		}
		return b
	}
	return Snapshot{
		Name:          pick(s.Name, other.Name),
		Email:         pick(s.Email, other.Email),
		Phone:         pick(s.Phone, other.Phone),
		Address:       pick(s.Address, other.Address),
		PaymentMethod: pick(s.PaymentMethod, other.PaymentMethod),
	}
}

// canonicalCart parses a JSON object payload, lifts the customer keys from
// its top level and re-encodes it with sorted keys.
func canonicalCart(payload string) (Snapshot, string, bool) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var cart map[string]any
	if err := dec.Decode(&cart); err != nil || cart == nil {
		return Snapshot{}, "", false
	}
	if dec.More() {
		return Snapshot{}, "", false
	}

	str := func(key string) string {
		v, _ := cart[key].(string)
		return v
	}
	lifted := Snapshot{
		Name:          str("nombre"),
		Email:         str("email"),
		Phone:         str("telefono"),
		Address:       str("direccion"),
		PaymentMethod: str("metodo_pago"),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cart); err != nil {
		return Snapshot{}, "", false
	}
	return lifted, strings.TrimSuffix(buf.String(), "\n"), true
}
