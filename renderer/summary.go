package renderer

import (
	"time"

	"github.com/etnz/networth"
	"github.com/etnz/networth/chat"
)

type totalsRow struct {
	Currency, Assets, Liabilities, Net string
	Accounts                           int
}

// RenderNetWorth renders the per currency net worth.
func RenderNetWorth(s networth.Summary) string {
	rows := make([]totalsRow, 0, len(s))
	for _, t := range s {
		rows = append(rows, totalsRow{
			Currency:    t.Currency,
			Assets:      networth.M(t.Assets, t.Currency).String(),
			Liabilities: networth.M(t.Liabilities.Neg(), t.Currency).String(),
			Net:         t.Money().String(),
			Accounts:    t.Accounts,
		})
	}
	return renderTemplate("networth", "networth.md", nil, rows)
}

// RenderProfile renders the user profile, p may be nil.
func RenderProfile(p *networth.Profile) string {
	return renderTemplate("profile", "profile.md", nil, p)
}

type messageView struct {
	Speaker string
	Time    string
	Text    string
}

// RenderTranscript renders the chat messages, oldest first.
func RenderTranscript(msgs []chat.Message) string {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		v := messageView{Speaker: "You", Text: m.Text}
		if m.Sender == chat.Bot {
			v.Speaker = "Assistant"
		}
		if m.Timestamp > 0 {
			v.Time = time.UnixMilli(m.Timestamp).Format("15:04")
		}
		views = append(views, v)
	}
	return renderTemplate("transcript", "transcript.md", nil, views)
}
