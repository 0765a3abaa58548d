package app

import (
	"io"
	"strconv"

	"github.com/c2h5oh/datasize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yanet-platform/routegen/internal/vector"
	"github.com/yanet-platform/routegen/internal/workload"
)

// Summary describes a generation run.
type Summary struct {
	// Path is where vectors went, a file or a bench endpoint.
	Path    string
	Format  vector.Format
	Seed    uint64
	Records int
	// Packets is the number of written packets for the pcap format.
	Packets int
	Stats   workload.Stats
	// Nodes is the number of trie nodes the table ended with.
	Nodes int
	Size  datasize.ByteSize
	// Report is set when generated vectors were verified.
	Report *workload.Report
}

// Print writes a human readable summary to w.
func (m *Summary) Print(w io.Writer) error {
	p := message.NewPrinter(language.English)

	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = p.Fprintf(w, format, args...)
		}
	}

	printf("output:     %s (%s, %s)\n", m.Path, m.Format, m.Size.HumanReadable())
	// Grouping digits would make the seed hard to reuse.
	printf("seed:       %s\n", strconv.FormatUint(m.Seed, 10))
	printf("records:    %d\n", m.Records)
	printf("insertions: %d (%d redrawn)\n", m.Stats.Inserts, m.Stats.Redraws)
	printf("queries:    %d (%d hits, %d misses)\n", m.Stats.Queries, m.Stats.Hits, m.Stats.Misses)
	printf("trie nodes: %d\n", m.Nodes)
	if m.Format == vector.FormatPcap {
		printf("packets:    %d\n", m.Packets)
	}
	if err != nil {
		return err
	}

	if m.Report != nil {
		return PrintReport(w, m.Report)
	}
	return nil
}

// PrintReport writes a human readable replay report to w.
func PrintReport(w io.Writer, report *workload.Report) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "verified:   %d insertions (%d duplicates), %d queries (%d hits, %d misses), %d mismatches\n",
		report.Inserts, report.Duplicates, report.Queries, report.Hits, report.Misses, len(report.Mismatches),
	); err != nil {
		return err
	}

	for _, mismatch := range report.Mismatches {
		if _, err := p.Fprintf(w, "  %s\n", mismatch); err != nil {
			return err
		}
	}

	return nil
}
