package stats

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uilive"
	"github.com/gosuri/uitable"
)

// Printer refreshes a stats table on the terminal
type Printer struct {
	stats    *Stats
	writer   *uilive.Writer
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewPrinter returns a printer writing to out every interval
func NewPrinter(stats *Stats, out io.Writer, interval time.Duration) *Printer {
	writer := uilive.New()
	writer.Out = out

	return &Printer{
		stats:    stats,
		writer:   writer,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the printer in its own goroutine until Stop is called
func (p *Printer) Start() {
	p.writer.Start()

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			p.print()

			select {
			case <-p.stop:
				p.print()
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop prints the table one last time and stops refreshing it
func (p *Printer) Stop() {
	close(p.stop)
	<-p.done
	p.writer.Stop()
}

func (p *Printer) print() {
	fmt.Fprintln(p.writer, p.table())
	p.writer.Flush()
}

func (p *Printer) table() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	albumURL, workingDir, status := p.stats.Current()

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	table.AddRow("", "")
	table.AddRow("  - Job:", p.stats.Job())
	table.AddRow("  - Album:", albumURL)
	table.AddRow("  - Directory:", workingDir)
	table.AddRow("  - Status:", status)
	table.AddRow("  - Items/s:", p.stats.ItemsPerSecond.Rate())
	table.AddRow("  - Completed:", p.stats.Completed.Value())
	table.AddRow("  - Already saved:", p.stats.Existing.Value())
	table.AddRow("  - Errored:", p.stats.Errored.Value())
	table.AddRow("  - Albums ripped:", p.stats.Albums.Value())
	table.AddRow("", "")
	table.AddRow("  - Elapsed time:", p.stats.Elapsed().Round(time.Second).String())
	table.AddRow("  - Allocated (heap):", humanize.Bytes(m.Alloc))
	table.AddRow("  - Goroutines:", runtime.NumGoroutine())
	table.AddRow("", "")

	return table.String()
}
