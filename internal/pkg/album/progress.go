package album

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ProgressReporter derives the completion metrics of an album from its
// ledger and forwards status events to the observer.
type ProgressReporter struct {
	ledger   *Ledger
	observer Observer
	log      *logrus.Entry
}

// NewProgressReporter returns a reporter, observer may be nil
func NewProgressReporter(ledger *Ledger, observer Observer, logger *logrus.Entry) *ProgressReporter {
	return &ProgressReporter{
		ledger:   ledger,
		observer: observer,
		log:      logger,
	}
}

// CompletionPercentage returns floor(100 * (total - pending) / total), or 0
// while nothing was submitted
func (p *ProgressReporter) CompletionPercentage() int {
	return percentage(p.ledger.Counts())
}

// StatusText returns "<percentage>% - Pending: <p>, Completed: <c>, Errored: <e>"
func (p *ProgressReporter) StatusText() string {
	counts := p.ledger.Counts()

	return fmt.Sprintf("%d%% - Pending: %d, Completed: %d, Errored: %d",
		percentage(counts), counts.Pending, counts.Completed, counts.Errored)
}

// Notify pushes event to the observer. Without an observer the event is
// dropped, and a panicking observer is logged and otherwise ignored.
func (p *ProgressReporter) Notify(source Source, event *Event) {
	if p.observer == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(logrus.Fields{
				"event": event.Kind.String(),
				"err":   fmt.Sprint(r),
			}).Error("Exception while updating observer")
		}
	}()

	p.observer.Update(source, event)
}

func percentage(counts Counts) int {
	total := counts.Total()
	if total == 0 {
		return 0
	}

	return 100 * (total - counts.Pending) / total
}
