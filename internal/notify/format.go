package notify

import (
	"fmt"
	"time"

	"github.com/goodsign/monday"
)

const locale = monday.LocalePtBR

// Formatter renders user-facing text in pt-BR.
type Formatter struct {
	// Location dates are shown in. Nil means UTC.
	Location *time.Location
}

func (f Formatter) in(t time.Time) time.Time {
	if f.Location == nil {
		return t.UTC()
	}
	return t.In(f.Location)
}

// Date renders t as "dia 10 de mar, às 14:00h".
func (f Formatter) Date(t time.Time) string {
	t = f.in(t)
	return fmt.Sprintf("dia %s, às %d:%02dh", monday.Format(t, "02 de Jan", locale), t.Hour(), t.Minute())
}

// LongDate renders t as "10 de março de 2025, às 14:00h".
func (f Formatter) LongDate(t time.Time) string {
	t = f.in(t)
	return fmt.Sprintf("%s, às %d:%02dh", monday.Format(t, "02 de January de 2006", locale), t.Hour(), t.Minute())
}

func (f Formatter) BookedContent(clientName string, slot time.Time) string {
	return fmt.Sprintf("Novo agendamento de %s, %s.", clientName, f.Date(slot))
}
