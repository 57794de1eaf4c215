package widget

import (
	"fmt"
	"io"

	"github.com/ONSdigital/sdx-survey-sync/internal/session"
)

// PrintNotifier prints notices, one per line. Err is used for failures when
// set, Out otherwise.
type PrintNotifier struct {
	Out io.Writer
	Err io.Writer
}

// Notify prints n.
func (p PrintNotifier) Notify(n session.Notice) {
	w := p.Out
	if n.Kind != session.NoticeSaved && p.Err != nil {
		w = p.Err
	}
	fmt.Fprintln(w, n.String())
}
