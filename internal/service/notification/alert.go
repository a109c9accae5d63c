package notification

import (
	"bytes"
	"fmt"
	"html"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidleathers/laborboard/internal/domain/moderation"
)

// DefaultPreviewLength is the number of characters of order text shown in
// an alert.
const DefaultPreviewLength = 200

// Moscow has had no daylight saving since 2014.
var moscow = time.FixedZone("MSK", 3*60*60)

// Alert carries everything an administrator needs to act on a flagged
// order without opening it.
type Alert struct {
	AlertID         uuid.UUID       `json:"alert_id"`
	OrderID         int64           `json:"order_id"`
	CustomerID      int64           `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	AccountAge      time.Duration   `json:"account_age"`
	AccountKnown    bool            `json:"account_known"`
	Score           int             `json:"score"`
	Threshold       int             `json:"threshold"`
	MatchedPatterns []string        `json:"matched_patterns"`
	OrderText       string          `json:"order_text"`
	Price           decimal.Decimal `json:"price"`
	Address         string          `json:"address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AccountBadge describes a recently registered author, or is empty.
func (a *Alert) AccountBadge() string {
	if !a.AccountKnown {
		return ""
	}
	switch {
	case a.AccountAge < moderation.NewAccountAge:
		return "🆕 НОВЫЙ ПОЛЬЗОВАТЕЛЬ (менее 48 часов)"
	case a.AccountAge < moderation.YoungAccountAge:
		return "⚠️ Молодой аккаунт (менее 7 дней)"
	default:
		return ""
	}
}

var alertTemplate = template.Must(template.New("alert").Funcs(template.FuncMap{
	"esc": html.EscapeString,
}).Parse(
	`⚠️ <b>ПОДОЗРИТЕЛЬНОЕ ОБЪЯВЛЕНИЕ #{{.OrderID}}</b>

🚨 <b>Уровень риска:</b> {{.Score}} баллов

👤 <b>Автор:</b> {{esc .Author}}{{if .Badge}} <b>{{.Badge}}</b>{{end}}
📅 <b>Когда:</b> {{.When}}
{{if .Patterns}}
🔍 <b>Найденные паттерны:</b>
{{range .Patterns}}  • {{esc .}}
{{end}}{{end}}
📝 <b>Текст объявления:</b>
{{esc .Preview}}`))

type alertView struct {
	OrderID  int64
	Score    int
	Author   string
	Badge    string
	When     string
	Patterns []string
	Preview  string
}

// RenderAlert formats the alert as Telegram HTML. User-supplied text is
// escaped.
func RenderAlert(a *Alert, previewLength int) (string, error) {
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}

	author := a.CustomerName
	if author == "" {
		author = fmt.Sprintf("ID %d", a.CustomerID)
	}

	view := alertView{
		OrderID:  a.OrderID,
		Score:    a.Score,
		Author:   author,
		Badge:    a.AccountBadge(),
		When:     a.CreatedAt.In(moscow).Format("02.01.2006 15:04") + " МСК",
		Patterns: a.MatchedPatterns,
		Preview:  truncate(a.OrderText, previewLength),
	}

	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render alert: %w", err)
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
