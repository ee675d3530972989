package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/greencrop/storefront/internal/config"
	"github.com/greencrop/storefront/internal/entity"
)

// Letter page in points, laid out top-down.
const (
	pageHeight   = 792.0
	marginLeft   = 100.0
	marginTop    = 42.0
	marginBottom = 50.0
	lineHeight   = 15.0
	sectionGap   = 30.0
	totalsGap    = 20.0
)

const dateLayout = "02/01/2006 15:04"

// Renderer produces invoice PDFs from stored orders. Output depends only on
// its inputs: the document dates come from the order, never from the clock.
type Renderer struct {
	shopName string
	currency string
	compress bool
}

// NewRenderer builds a renderer using the store settings.
func NewRenderer(cfg config.Config) *Renderer {
	return New(cfg.Store.Name, cfg.Store.CurrencySymbol)
}

// New builds a renderer for the given shop name and currency prefix.
func New(shopName, currency string) *Renderer {
	return &Renderer{shopName: shopName, currency: currency, compress: true}
}

// Render returns the invoice of order addressed to customer.
func (r *Renderer) Render(order *entity.Order, customer string) ([]byte, error) {
	pdf, err := r.build(order, customer)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice %d: %w", order.ID, err)
	}
	return buf.Bytes(), nil
}

// ItemLine formats a cart line the way it is printed.
func ItemLine(currency string, it Item) string {
	return fmt.Sprintf("- %s x %s - %s%s", it.Name, it.Quantity, currency, it.Price)
}

func (r *Renderer) build(order *entity.Order, customer string) (*fpdf.Fpdf, error) {
	if order == nil {
		return nil, errors.New("invoice: nil order")
	}

	stamp := order.CreatedAt.UTC()
	if order.CreatedAt.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.compress)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(fmt.Sprintf("Factura %d", order.ID), true)
	pdf.SetAuthor(r.shopName, true)

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	w.newPage()

	w.line(r.shopName)
	w.line("Factura de Compra")
	w.line(fmt.Sprintf("Factura #: %d", order.ID))
	w.line(fmt.Sprintf("Fecha: %s", stamp.Format(dateLayout)))
	w.line(fmt.Sprintf("Cliente: %s", customer))

	w.skip(sectionGap - lineHeight)
	w.line("Detalles del Pedido:")

	for _, it := range ParseItems(order.Payload) {
		w.line(ItemLine(r.currency, it))
	}

	w.skip(totalsGap)
	w.line(fmt.Sprintf("Total: %s%s", r.currency, order.Total.StringFixed(2)))
	w.skip(totalsGap - lineHeight)
	w.line(fmt.Sprintf("Estado: %s", order.Status))

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render invoice %d: %w", order.ID, err)
	}
	return pdf, nil
}

// writer draws lines top-down and starts a new page when the next line would
// cross the bottom margin.
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func (w *writer) newPage() {
	w.pdf.AddPage()
	w.pdf.SetFont("Helvetica", "", 12)
	w.y = marginTop
}

func (w *writer) skip(dy float64) {
	w.y += dy
}

func (w *writer) line(s string) {
	if w.y > pageHeight-marginBottom {
		w.newPage()
	}
	w.pdf.Text(marginLeft, w.y, w.tr(s))
	w.y += lineHeight
}
