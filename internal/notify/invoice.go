package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type InvoiceLine struct {
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type InvoiceCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Invoice is the data behind the invoice file, the confirmation messages and
// the invoice endpoint.
type Invoice struct {
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	OrderDate     time.Time       `json:"orderDate"`
	CustomerID    string          `json:"customerId"`
	Customer      InvoiceCustomer `json:"customer"`
	Address       string          `json:"address"`
	Items         []InvoiceLine   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	GST           decimal.Decimal `json:"gst"`
	Shipping      decimal.Decimal `json:"shipping"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId,omitempty"`
	Status        order.Status    `json:"status"`
}

func NewInvoice(o *order.Order, c *auth.Customer, transactionID string) Invoice {
	inv := Invoice{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt,
		CustomerID:    o.CustomerID,
		Address:       o.Address.String(),
		Items:         make([]InvoiceLine, 0, len(o.Items)),
		Subtotal:      o.Subtotal,
		GST:           o.GST,
		Shipping:      o.Shipping,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		TransactionID: transactionID,
		Status:        o.Status,
	}
	if c != nil {
		inv.Customer = InvoiceCustomer{Name: c.FullName, Email: c.Email, Phone: c.Phone}
	}
	for _, it := range o.Items {
		inv.Items = append(inv.Items, InvoiceLine{
			ProductName: it.Name,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return inv
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
}).Parse(`TAX INVOICE
Order:    {{.OrderNumber}}
Date:     {{date .OrderDate}}
Customer: {{.Customer.Name}} <{{.Customer.Email}}>
Ship to:  {{.Address}}

{{range .Items}}{{printf "%-32s" .ProductName}} {{printf "%4d" .Quantity}} x {{money .UnitPrice}} = {{money .LineTotal}}
{{end}}
Subtotal: {{money .Subtotal}}
GST 18%:  {{money .GST}}
Shipping: {{money .Shipping}}
{{- if .Discount.IsPositive}}
Discount: -{{money .Discount}}{{end}}
Total:    {{money .Total}}
Payment:  {{.PaymentMethod}}{{if .TransactionID}} ({{.TransactionID}}){{end}}
`))

// FileRenderer writes plain-text invoices into dir.
type FileRenderer struct {
	dir string
}

func NewFileRenderer(dir string) *FileRenderer {
	return &FileRenderer{dir: dir}
}

// Path is where the invoice for orderID is written.
func (r *FileRenderer) Path(orderID string) string {
	safe := strings.Map(func(c rune) rune {
		if c == '/' || c == '\\' || c == '.' {
			return '_'
		}
		return c
	}, orderID)
	return filepath.Join(r.dir, "invoice-"+safe+".txt")
}

func (r *FileRenderer) Render(inv Invoice) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	path := r.Path(inv.OrderID)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}
	defer f.Close()

	if err := invoiceTemplate.Execute(f, inv); err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	return path, nil
}
