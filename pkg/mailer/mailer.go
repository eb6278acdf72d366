// Package mailer sends the monthly spending digest through Resend.
package mailer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	txservice "github.com/granadev/grana/internal/domain/transactions/service"
	"github.com/granadev/grana/pkg/money"
)

// Mailer sends digest emails. A nil client (no API key) makes every send
// a logged no-op so the rest of the app never cares about mail config.
type Mailer struct {
	client *resend.Client
	from   string
	to     string
	logger *slog.Logger
}

// New creates the mailer. An empty apiKey disables sending.
func New(apiKey, from, to string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &Mailer{client: client, from: from, to: to, logger: logger}
}

// Enabled reports whether the mailer can actually send.
func (m *Mailer) Enabled() bool {
	return m.client != nil && m.to != ""
}

// SendMonthlyDigest emails the month's numbers.
func (m *Mailer) SendMonthlyDigest(stats *txservice.Stats) error {
	if !m.Enabled() {
		m.logger.Warn("mailer not configured, skipping monthly digest")
		return nil
	}

	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: fmt.Sprintf("Resumo financeiro de %s", stats.Month),
		Html:    digestHTML(stats),
	})
	if err != nil {
		return fmt.Errorf("failed to send monthly digest: %w", err)
	}
	return nil
}

func digestHTML(stats *txservice.Stats) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="font-family: sans-serif; color: #222;">`)
	fmt.Fprintf(&b, `<h2>Resumo de %s</h2>`, stats.Month)
	b.WriteString(`<table cellpadding="6">`)
	fmt.Fprintf(&b, `<tr><td>Entradas</td><td>%s</td></tr>`, money.DisplayDecimal(stats.Income))
	fmt.Fprintf(&b, `<tr><td>Saídas</td><td>%s</td></tr>`, money.DisplayDecimal(stats.Expense))
	fmt.Fprintf(&b, `<tr><td>Investido</td><td>%s</td></tr>`, money.DisplayDecimal(stats.Invested))
	fmt.Fprintf(&b, `<tr><td><strong>Saldo</strong></td><td><strong>%s</strong></td></tr>`, money.DisplayDecimal(stats.Balance))
	b.WriteString(`</table>`)

	if len(stats.ByCategory) > 0 {
		b.WriteString(`<h3>Gastos por categoria</h3><ul>`)
		for _, ct := range stats.ByCategory {
			fmt.Fprintf(&b, `<li>%s: %s</li>`, ct.Category, money.DisplayDecimal(ct.Total))
		}
		b.WriteString(`</ul>`)
	}

	b.WriteString(`</body></html>`)
	return b.String()
}
