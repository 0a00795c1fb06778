package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type InvoiceRenderer interface {
	Render(inv Invoice) (string, error)
}

// Dispatcher runs the order confirmation channels in a fixed order. A failing
// step never stops the ones after it.
type Dispatcher struct {
	email    EmailSender
	sms      SMSSender
	invoices InvoiceRenderer
	logger   *zap.Logger
}

func NewDispatcher(email EmailSender, sms SMSSender, invoices InvoiceRenderer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, invoices: invoices, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, inv Invoice, prefs Preferences) Outcome {
	out := Outcome{OrderID: inv.OrderID}

	if prefs.wantsEmail() && inv.Customer.Email != "" {
		err := d.sendEmail(ctx, inv.Customer.Email, "Order confirmed: "+inv.OrderNumber, confirmationText(inv))
		out.add(StepEmail, err)
		d.logStep(inv, StepEmail, err)
	} else {
		out.skip(StepEmail)
	}

	if prefs.wantsSMS() && inv.Customer.Phone != "" {
		err := d.sendSMS(ctx, inv.Customer.Phone, smsText(inv))
		out.add(StepSMS, err)
		d.logStep(inv, StepSMS, err)
	} else {
		out.skip(StepSMS)
	}

	err := d.invoice(ctx, inv, prefs)
	out.add(StepInvoice, err)
	d.logStep(inv, StepInvoice, err)

	return out
}

// SendInvoice renders the invoice again and emails it to the customer,
// regardless of their confirmation preferences.
func (d *Dispatcher) SendInvoice(ctx context.Context, inv Invoice) Outcome {
	out := Outcome{OrderID: inv.OrderID}
	err := d.invoice(ctx, inv, Preferences{EmailEnabled: true})
	out.add(StepInvoice, err)
	d.logStep(inv, StepInvoice, err)
	return out
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) error {
	if d.email == nil {
		return ErrNotConfigured
	}
	return d.email.SendEmail(ctx, to, subject, body)
}

func (d *Dispatcher) sendSMS(ctx context.Context, to, body string) error {
	if d.sms == nil {
		return ErrNotConfigured
	}
	return d.sms.SendSMS(ctx, to, body)
}

func (d *Dispatcher) invoice(ctx context.Context, inv Invoice, prefs Preferences) error {
	if d.invoices == nil {
		return ErrNotConfigured
	}
	path, err := d.invoices.Render(inv)
	if err != nil {
		return err
	}
	if !prefs.EmailEnabled || inv.Customer.Email == "" {
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\nYour invoice for order %s (total Rs. %s) is ready: %s\n",
		inv.Customer.Name, inv.OrderNumber, inv.Total.StringFixed(2), path)
	if err := d.sendEmail(ctx, inv.Customer.Email, "Invoice for "+inv.OrderNumber, body); err != nil {
		return fmt.Errorf("email invoice: %w", err)
	}
	return nil
}

func (d *Dispatcher) logStep(inv Invoice, step Step, err error) {
	if err != nil {
		d.logger.Error("notification step failed",
			zap.String("orderId", inv.OrderID), zap.String("step", string(step)), zap.Error(err))
		return
	}
	d.logger.Info("notification step sent", zap.String("orderId", inv.OrderID), zap.String("step", string(step)))
}

func confirmationText(inv Invoice) string {
	s := fmt.Sprintf("Hi %s,\n\nThank you! Your order %s is confirmed.\n\n", inv.Customer.Name, inv.OrderNumber)
	for _, it := range inv.Items {
		s += fmt.Sprintf("  %s x%d  Rs. %s\n", it.ProductName, it.Quantity, it.LineTotal.StringFixed(2))
	}
	s += fmt.Sprintf("\nTotal paid: Rs. %s\nShipping to: %s\n", inv.Total.StringFixed(2), inv.Address)
	return s
}

func smsText(inv Invoice) string {
	return fmt.Sprintf("Hi! Your order %s of Rs.%s is confirmed.", inv.OrderNumber, inv.Total.StringFixed(2))
}
