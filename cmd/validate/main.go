// Command validate performs integrity checks on BDMEP yearly archives: every
// member must carry a readable station header, a fully recognized column
// header and strictly increasing hourly timestamps, and the aggregated
// dataset must agree with the per-member counts and survive partitioning
// without losing rows.
//
// Usage:
//
//	go run ./cmd/validate -level month data/raw/inmet-bdmep_2020_20240102.zip
package main

import (
	"archive/zip"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dankkom/inmet-bdmep-data/internal/archive"
	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// memberReport is what one member file decoded to on its own.
type memberReport struct {
	name     string
	meta     domain.StationMetadata
	table    domain.Table
	lookup   bool
	metaErr  error
	tableErr error
}

func main() {
	level := flag.String("level", "month", "partition level to check: year, month or day")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	g, err := domain.ParseGranularity(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := archive.NewAggregator(quiet, observability.NewMetrics())

	code := 0
	for _, path := range flag.Args() {
		if run(agg, path, g) != 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(agg *archive.Aggregator, path string, g domain.Granularity) int {
	fmt.Printf("=== BDMEP Archive Validation: %s ===\n\n", path)

	zr, err := zip.OpenReader(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open archive: %v\n", err)
		return 1
	}
	defer zr.Close()

	reports, err := inspectMembers(&zr.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: inspect members: %v\n", err)
		return 1
	}

	dataset, aggErr := agg.Read(context.Background(), &zr.Reader)

	phases := []*phase{
		validateStationHeaders(reports),
		validateColumnHeaders(reports),
		validateTimestamps(reports),
		validateAggregate(reports, dataset, aggErr, g),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	var kept, dropped, lookup int
	for _, r := range reports {
		kept += len(r.table.Rows)
		dropped += r.table.Dropped
		if r.lookup {
			lookup++
		}
	}
	fmt.Println()
	fmt.Printf("Members: %d (%d inline-unit headers, %d legacy headers)\n", len(reports), lookup, len(reports)-lookup)
	fmt.Printf("Rows: %d kept, %d dropped as empty\n", kept, dropped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Member inspection ──

func inspectMembers(zr *zip.Reader) ([]memberReport, error) {
	var reports []memberReport
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		reports = append(reports, inspect(f.Name, rc))
		rc.Close()
	}
	return reports, nil
}

// inspect decodes one member with a single reader, so the column header is
// read from where the station header left off.
func inspect(name string, r io.Reader) memberReport {
	rep := memberReport{name: name}
	src := domain.NewSourceReader(r)

	rep.meta, rep.metaErr = domain.ParseMetadata(src, nil)
	if rep.metaErr != nil {
		return rep
	}

	rep.table, rep.tableErr = domain.ParseObservations(src)
	if len(rep.table.Headers) > 0 {
		raw := make([]string, len(rep.table.Headers))
		for i, h := range rep.table.Headers {
			raw[i] = h.Raw
		}
		_, rep.lookup = domain.DetectNormalizer(raw).(*domain.LookupNormalizer)
	}
	return rep
}

// ── Phase 1: Station headers ──

func validateStationHeaders(reports []memberReport) *phase {
	p := &phase{name: "Phase 1: Station Headers"}
	seen := make(map[string]string)
	for _, r := range reports {
		if r.metaErr != nil {
			p.errorf("%s: %v", r.name, r.metaErr)
			continue
		}
		if r.meta.WMOCode == "" {
			p.errorf("%s: empty WMO code", r.name)
		}
		if r.meta.Latitude == nil || r.meta.Longitude == nil {
			p.errorf("%s: station %s has no coordinates", r.name, r.meta.WMOCode)
		}
		if !r.meta.FoundationDate.Valid() {
			p.errorf("%s: foundation date %q kept as raw text", r.name, r.meta.FoundationDate.Raw)
		}
		if prev, ok := seen[r.meta.WMOCode]; ok {
			p.errorf("%s: station %s already seen in %s", r.name, r.meta.WMOCode, prev)
		}
		seen[r.meta.WMOCode] = r.name
	}
	return p
}

// ── Phase 2: Column headers ──

func validateColumnHeaders(reports []memberReport) *phase {
	p := &phase{name: "Phase 2: Column Headers"}
	for _, r := range reports {
		if r.metaErr != nil {
			continue
		}
		if r.tableErr != nil {
			p.errorf("%s: %v", r.name, r.tableErr)
			continue
		}
		for _, h := range r.table.Headers {
			if !h.Recognized {
				p.errorf("%s: unrecognized header %q", r.name, h.Raw)
			}
		}
	}
	return p
}

// ── Phase 3: Timestamps ──

func validateTimestamps(reports []memberReport) *phase {
	p := &phase{name: "Phase 3: Timestamps"}
	for _, r := range reports {
		var prev time.Time
		for i, o := range r.table.Rows {
			if o.Timestamp.Minute() != 0 {
				p.errorf("%s: row %d at %s is not on the hour", r.name, i+1, o.Timestamp.Format(time.RFC3339))
			}
			if i > 0 && !o.Timestamp.After(prev) {
				p.errorf("%s: row %d at %s does not follow %s", r.name, i+1,
					o.Timestamp.Format(time.RFC3339), prev.Format(time.RFC3339))
			}
			prev = o.Timestamp
		}
	}
	return p
}

// ── Phase 4: Aggregate ──

func validateAggregate(reports []memberReport, d domain.Dataset, aggErr error, g domain.Granularity) *phase {
	p := &phase{name: "Phase 4: Aggregate and Partitions"}
	if aggErr != nil {
		p.errorf("aggregate: %v", aggErr)
		return p
	}

	want := 0
	for _, r := range reports {
		want += len(r.table.Rows)
	}
	if d.Len() != want {
		p.errorf("aggregate has %d rows, members total %d", d.Len(), want)
	}
	for i, o := range d.Rows {
		if o.Station == nil {
			p.errorf("aggregate row %d has no station attached", i+1)
			break
		}
	}

	got := 0
	for key, part := range domain.Partitions(d, g) {
		for _, o := range part.Rows {
			if domain.KeyOf(o, g) != key {
				p.errorf("partition %s holds a row keyed %s", key, domain.KeyOf(o, g))
				break
			}
		}
		got += part.Len()
	}
	if got != d.Len() {
		p.errorf("partitions hold %d rows, dataset has %d", got, d.Len())
	}
	return p
}
