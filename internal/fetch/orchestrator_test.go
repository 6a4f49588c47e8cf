package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

func buildManifest(names ...string) *manifest.Manifest {
	m := &manifest.Manifest{
		Name:            "test",
		CriticalMarkers: []string{"/critical-"},
	}
	for _, n := range names {
		m.Entries = append(m.Entries, entry(n))
	}
	return m
}

type progressRecorder struct {
	values []int
}

func (p *progressRecorder) record(v int) {
	p.values = append(p.values, v)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		processed, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 8, 13},
		{0, 5, 0},
		{0, 0, 100},
		{7, 5, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.processed, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestOrchestrator_Run_ProgressSequence(t *testing.T) {
	for _, n := range []int{1, 3, 7, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			var names []string
			for i := 0; i < n; i++ {
				names = append(names, fmt.Sprintf("lib%02d", i))
			}
			m := buildManifest(names...)

			o := NewOrchestrator(newTestFetcher(t, newFakeTransport()), Config{})
			rec := &progressRecorder{}

			report, err := o.Run(context.Background(), m, rec.record)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.State != StateCompleted {
				t.Errorf("State = %v, want completed", report.State)
			}

			if len(rec.values) != n {
				t.Fatalf("progress reports = %v, want %d values", rec.values, n)
			}
			for i, v := range rec.values {
				want := int(math.Round(100 * float64(i+1) / float64(n)))
				if v != want {
					t.Errorf("progress[%d] = %d, want %d", i, v, want)
				}
				if i > 0 && v < rec.values[i-1] {
					t.Errorf("progress decreased: %v", rec.values)
				}
			}
			if rec.values[n-1] != 100 {
				t.Errorf("last progress = %d, want 100", rec.values[n-1])
			}
			if got := report.Count(OutcomeFetched); got != n {
				t.Errorf("fetched = %d, want %d", got, n)
			}
		})
	}
}

func TestOrchestrator_Run_AllPresent(t *testing.T) {
	tr := newFakeTransport()
	f := newTestFetcher(t, tr)
	m := buildManifest("a", "b", "c")

	for _, e := range m.Entries {
		p, _ := f.Path(e)
		writeFile(t, p, 4096)
	}

	report, err := NewOrchestrator(f, Config{}).Run(context.Background(), m, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := report.Count(OutcomePresent); got != 3 {
		t.Errorf("present = %d, want 3", got)
	}
	if n := tr.downloadCount(); n != 0 {
		t.Errorf("downloads = %d, want 0", n)
	}
}

func TestOrchestrator_Run_CriticalAborts(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("a", "critical-core", "c", "d")
	tr.fail[m.Entries[1].URL] = errors.New("404 not found")

	o := NewOrchestrator(newTestFetcher(t, tr), Config{})
	rec := &progressRecorder{}

	report, err := o.Run(context.Background(), m, rec.record)

	var fatal *FatalDependencyMissingError
	if !errors.As(err, &fatal) {
		t.Fatalf("Run() error = %v, want *FatalDependencyMissingError", err)
	}
	if fatal.Path != m.Entries[1].Path {
		t.Errorf("fatal.Path = %q, want %q", fatal.Path, m.Entries[1].Path)
	}
	if report.State != StateAborted {
		t.Errorf("State = %v, want aborted", report.State)
	}

	if got := report.Results[1].Outcome; got != OutcomeFatal {
		t.Errorf("Results[1].Outcome = %v, want fatal", got)
	}
	for _, i := range []int{2, 3} {
		if got := report.Results[i].Outcome; got != OutcomeUnknown {
			t.Errorf("Results[%d].Outcome = %v, want unknown (not processed)", i, got)
		}
	}

	if n := tr.downloadCount(); n != 2 {
		t.Errorf("downloads = %d, want 2 (nothing after the fatal entry)", n)
	}
	// The fatal entry reports its progress, later entries report nothing
	if len(rec.values) != 2 || rec.values[0] != 25 || rec.values[1] != 50 {
		t.Errorf("progress = %v, want [25 50]", rec.values)
	}
}

func TestOrchestrator_Run_CriticalFlag(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("a", "b")
	m.Entries[0].Critical = true
	tr.fail[m.Entries[0].URL] = errors.New("timeout")

	var fatal *FatalDependencyMissingError
	_, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).Run(context.Background(), m, nil)
	if !errors.As(err, &fatal) {
		t.Errorf("Run() error = %v, want *FatalDependencyMissingError", err)
	}
}

func TestOrchestrator_Run_CorruptCriticalAborts(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("critical-core")
	tr.sizes[m.Entries[0].URL] = 100

	_, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).Run(context.Background(), m, nil)

	var fatal *FatalDependencyMissingError
	var corrupt *CorruptDownloadError
	if !errors.As(err, &fatal) || !errors.As(err, &corrupt) {
		t.Errorf("Run() error = %v, want fatal wrapping corrupt download", err)
	}
}

func TestOrchestrator_Run_ToleratedContinues(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("a", "optional", "c")
	tr.fail[m.Entries[1].URL] = errors.New("503")

	rec := &progressRecorder{}
	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).Run(context.Background(), m, rec.record)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.State != StateCompleted {
		t.Errorf("State = %v, want completed", report.State)
	}

	want := []Outcome{OutcomeFetched, OutcomeTolerated, OutcomeFetched}
	for i, o := range want {
		if report.Results[i].Outcome != o {
			t.Errorf("Results[%d].Outcome = %v, want %v", i, report.Results[i].Outcome, o)
		}
	}

	tolerated := report.Tolerated()
	if len(tolerated) != 1 || tolerated[0].Entry.Path != m.Entries[1].Path {
		t.Errorf("Tolerated() = %+v", tolerated)
	}
	var fetchErr *FetchFailedError
	if !errors.As(tolerated[0].Err, &fetchErr) {
		t.Errorf("tolerated Err = %v, want *FetchFailedError", tolerated[0].Err)
	}

	if len(rec.values) != 3 || rec.values[2] != 100 {
		t.Errorf("progress = %v, want three reports ending at 100", rec.values)
	}
}

func TestOrchestrator_Run_ToleratedThenFatal(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("optional", "critical-core", "c")
	tr.fail[m.Entries[0].URL] = errors.New("503")
	tr.fail[m.Entries[1].URL] = errors.New("503")

	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).Run(context.Background(), m, nil)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if report.Results[0].Outcome != OutcomeTolerated || report.Results[1].Outcome != OutcomeFatal {
		t.Errorf("outcomes = %v, %v", report.Results[0].Outcome, report.Results[1].Outcome)
	}
}

func TestOrchestrator_Run_SkipsNatives(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("a")
	m.Entries = append(m.Entries, manifest.Entry{
		URL: "https://libraries.example.com/n.jar", Path: "n/n-natives-linux.jar", Native: true,
	})

	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).Run(context.Background(), m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 {
		t.Errorf("Results = %d, want only the library entry", len(report.Results))
	}
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewOrchestrator(newTestFetcher(t, newFakeTransport()), Config{}).Run(ctx, buildManifest("a", "b"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if report.State != StateAborted {
		t.Errorf("State = %v, want aborted", report.State)
	}
}

func TestOrchestrator_Run_Concurrent(t *testing.T) {
	tr := newFakeTransport()
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, fmt.Sprintf("lib%02d", i))
	}
	m := buildManifest(names...)
	tr.fail[m.Entries[5].URL] = errors.New("gone")

	rec := &progressRecorder{}
	o := NewOrchestrator(newTestFetcher(t, tr), Config{Workers: 4})

	report, err := o.Run(context.Background(), m, rec.record)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Count(OutcomeFetched) != 19 || report.Count(OutcomeTolerated) != 1 {
		t.Errorf("fetched = %d, tolerated = %d", report.Count(OutcomeFetched), report.Count(OutcomeTolerated))
	}
	if len(rec.values) != 20 {
		t.Fatalf("progress reports = %d, want 20", len(rec.values))
	}
	if !sort.IntsAreSorted(rec.values) || rec.values[19] != 100 {
		t.Errorf("progress = %v, want non-decreasing ending at 100", rec.values)
	}
}

func TestOrchestrator_Run_ConcurrentFatal(t *testing.T) {
	tr := newFakeTransport()
	m := buildManifest("a", "b", "critical-core", "d", "e", "f")
	tr.fail[m.Entries[2].URL] = errors.New("gone")

	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{Workers: 3}).Run(context.Background(), m, nil)

	var fatal *FatalDependencyMissingError
	if !errors.As(err, &fatal) {
		t.Fatalf("Run() error = %v, want *FatalDependencyMissingError", err)
	}
	if report.State != StateAborted {
		t.Errorf("State = %v, want aborted", report.State)
	}
}

func TestOrchestrator_RunNatives(t *testing.T) {
	tr := newFakeTransport()
	f := newTestFetcher(t, tr)
	nativesDir := filepath.Join(t.TempDir(), "natives")

	m := &manifest.Manifest{Name: "natives"}
	m.Entries = []manifest.Entry{
		{URL: "https://libraries.example.com/lib.jar", Path: "lib/lib.jar"},
		{URL: "https://libraries.example.com/lwjgl.jar", Path: "lwjgl/lwjgl-natives-linux.jar", Native: true},
		{URL: "https://libraries.example.com/jinput.jar", Path: "jinput/jinput-natives-linux.jar", Native: true},
	}

	o := NewOrchestrator(f, Config{})

	// Second run finds the archives present and extracts them again
	for run := 1; run <= 2; run++ {
		rec := &progressRecorder{}
		report, err := o.RunNatives(context.Background(), m, nativesDir, rec.record)
		if err != nil {
			t.Fatalf("run %d: RunNatives() error = %v", run, err)
		}
		if report.State != StateCompleted {
			t.Errorf("run %d: State = %v", run, report.State)
		}
		if len(report.Results) != 2 {
			t.Fatalf("run %d: Results = %d, want 2", run, len(report.Results))
		}

		wantOutcome := OutcomeFetched
		if run == 2 {
			wantOutcome = OutcomePresent
		}
		for i, res := range report.Results {
			if res.Outcome != wantOutcome {
				t.Errorf("run %d: Results[%d].Outcome = %v, want %v", run, i, res.Outcome, wantOutcome)
			}
			if !res.Extracted {
				t.Errorf("run %d: Results[%d] not extracted", run, i)
			}
		}
		if len(rec.values) != 2 || rec.values[0] != 50 || rec.values[1] != 100 {
			t.Errorf("run %d: progress = %v, want [50 100]", run, rec.values)
		}
	}

	if len(tr.extracts) != 4 {
		t.Errorf("extractions = %d, want 4 (two per run)", len(tr.extracts))
	}
	if n := tr.downloadCount(); n != 2 {
		t.Errorf("downloads = %d, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(nativesDir, "lwjgl-natives-linux.jar.so")); err != nil {
		t.Errorf("extracted native missing: %v", err)
	}
}

func TestOrchestrator_RunNatives_ExtractionTolerated(t *testing.T) {
	tr := newFakeTransport()
	tr.extractErr = errors.New("zip: not a valid zip file")

	m := &manifest.Manifest{
		Name:            "natives",
		CriticalMarkers: []string{"lwjgl"},
		Entries: []manifest.Entry{
			{URL: "https://libraries.example.com/lwjgl.jar", Path: "lwjgl/lwjgl-natives-linux.jar", Native: true},
			{URL: "https://libraries.example.com/other.jar", Path: "other/other-natives-linux.jar", Native: true},
		},
	}

	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).RunNatives(context.Background(), m, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("RunNatives() error = %v, extraction failures must not abort", err)
	}
	if report.State != StateCompleted {
		t.Errorf("State = %v, want completed", report.State)
	}

	failures := report.ExtractionFailures()
	if len(failures) != 2 {
		t.Fatalf("ExtractionFailures() = %d, want 2", len(failures))
	}
	var extractErr *ExtractionFailedError
	if !errors.As(failures[0].ExtractErr, &extractErr) {
		t.Errorf("ExtractErr = %v, want *ExtractionFailedError", failures[0].ExtractErr)
	}
}

func TestOrchestrator_RunNatives_FetchFailure(t *testing.T) {
	tr := newFakeTransport()
	m := &manifest.Manifest{
		Name: "natives",
		Entries: []manifest.Entry{
			{URL: "https://libraries.example.com/opt.jar", Path: "opt/opt-natives-linux.jar", Native: true},
		},
	}
	tr.fail[m.Entries[0].URL] = errors.New("404")

	report, err := NewOrchestrator(newTestFetcher(t, tr), Config{}).RunNatives(context.Background(), m, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("RunNatives() error = %v", err)
	}
	if report.Results[0].Outcome != OutcomeTolerated {
		t.Errorf("Outcome = %v, want tolerated", report.Results[0].Outcome)
	}
	if len(tr.extracts) != 0 {
		t.Errorf("extractions = %d, want 0 for a missing archive", len(tr.extracts))
	}
}

func TestOrchestrator_RunNatives_RequiresDir(t *testing.T) {
	o := NewOrchestrator(newTestFetcher(t, newFakeTransport()), Config{})
	if _, err := o.RunNatives(context.Background(), buildManifest("a"), "", nil); err == nil {
		t.Error("expected error for empty natives dir")
	}
}
