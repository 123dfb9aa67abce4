package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/provider"
)

var settlementTemplate = template.Must(template.New("settlement").Parse(`<!DOCTYPE html>
<html>
<body style="margin: 0; padding: 24px; font-family: Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" width="600" style="border-collapse: collapse; background-color: #ffffff;">
		<tr><td style="padding: 24px; background-color: #5271ff; color: #ffffff;"><h1 style="margin: 0; font-size: 22px;">Settlement processed</h1></td></tr>
		<tr><td style="padding: 24px; color: #333333; font-size: 15px; line-height: 1.6;">
			<p>Hello {{.BusinessName}},</p>
			<p><strong>{{.Currency}} {{.Amount}}</strong> has been moved to your available balance.</p>
			<p>Settlement ID: <code>{{.SettlementID}}</code><br/>Payments included: {{.PaymentsCount}}<br/>Period end: {{.PeriodEnd}}</p>
		</td></tr>
	</table>
</body>
</html>`))

// SettlementNotice is the data for a settlement email
type SettlementNotice struct {
	To            string
	BusinessName  string
	Amount        decimal.Decimal
	Currency      string
	SettlementID  string
	PaymentsCount int
	PeriodEnd     time.Time
}

// BuildSettlementNotification renders the settlement email
func BuildSettlementNotification(n SettlementNotice) (provider.Notification, error) {
	data := struct {
		BusinessName  string
		Amount        string
		Currency      string
		SettlementID  string
		PaymentsCount int
		PeriodEnd     string
	}{
		BusinessName:  n.BusinessName,
		Amount:        n.Amount.StringFixed(2),
		Currency:      n.Currency,
		SettlementID:  n.SettlementID,
		PaymentsCount: n.PaymentsCount,
		PeriodEnd:     n.PeriodEnd.Format(time.RFC1123),
	}

	var html bytes.Buffer
	if err := settlementTemplate.Execute(&html, data); err != nil {
		return provider.Notification{}, err
	}

	text := fmt.Sprintf("Hello %s,\n\n%s %s has been moved to your available balance.\n\nSettlement ID: %s\nPayments included: %d\nPeriod end: %s\n",
		data.BusinessName, data.Currency, data.Amount, data.SettlementID, data.PaymentsCount, data.PeriodEnd)

	return provider.Notification{
		To:       n.To,
		Subject:  fmt.Sprintf("Settlement %s processed: %s %s", n.SettlementID, n.Currency, data.Amount),
		HTMLBody: html.String(),
		TextBody: text,
	}, nil
}
