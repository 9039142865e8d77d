// Package importer ingests legacy bill dumps dropped into a directory. Each
// *.json file holds an array of legacy-shaped objects (inconsistent field
// aliases included); records are normalized to the canonical draft shape and
// inserted through the billing service so every imported bill is issued a
// real receipt number.
package importer

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/billing"
)

// Importer scans and optionally watches a drop directory for legacy dumps.
type Importer struct {
	svc     *billing.Service
	dir     string
	workers int
	verbose bool
}

// New builds an importer over svc for dir. workers <= 0 means NumCPU.
func New(svc *billing.Service, dir string, workers int) *Importer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Importer{svc: svc, dir: dir, workers: workers}
}

// SetVerbose enables per-record logging.
func (im *Importer) SetVerbose(v bool) { im.verbose = v }

func (im *Importer) logV(format string, args ...any) {
	if im.verbose {
		log.Printf(format, args...)
	}
}

// Result counts the outcome of a scan.
type Result struct {
	Imported int
	Failed   int
}

// ScanOnce processes every *.json file currently in the directory using a
// worker pool, then moves each handled file into dir/processed so a rescan
// does not re-import it.
func (im *Importer) ScanOnce(ctx context.Context) (Result, error) {
	files, err := im.listDumpFiles()
	if err != nil {
		return Result{}, err
	}
	log.Printf("Scanning %d dump files (workers=%d)", len(files), im.workers)

	fileCh := make(chan string, len(files)+1)
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	var mu sync.Mutex
	var total Result
	var wg sync.WaitGroup
	for i := 0; i < im.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				res := im.processFile(ctx, name)
				mu.Lock()
				total.Imported += res.Imported
				total.Failed += res.Failed
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return total, nil
}

// Watch blocks, processing new dump files as they appear. Events are debounced
// so half-written files are not picked up; processing reuses the worker pool.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", im.dir)

	fileCh := make(chan string, 256)
	go func() {
		defer close(fileCh)
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create || ev.Op&fsnotify.Write == fsnotify.Write {
					name := filepath.Base(ev.Name)
					if !isDumpFile(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < im.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				im.processFile(ctx, name)
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// processFile imports one dump file and moves it to dir/processed.
func (im *Importer) processFile(ctx context.Context, name string) Result {
	path := filepath.Join(im.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("ERROR read %s: %v", name, err)
		return Result{Failed: 1}
	}

	records, err := decodeDump(data)
	if err != nil {
		log.Printf("ERROR decode %s: %v", name, err)
		return Result{Failed: 1}
	}

	var res Result
	for i, raw := range records {
		draft, err := billing.NormalizeLegacy(raw)
		if err != nil {
			log.Printf("WARN %s record %d: %v", name, i, err)
			res.Failed++
			continue
		}
		rec, err := im.svc.CreateBill(ctx, draft)
		if err != nil {
			log.Printf("WARN %s record %d rejected: %v", name, i, err)
			res.Failed++
			continue
		}
		im.logV("IMPORTED %s record %d receipt=%d amount=%d", name, i, rec.ReceiptNo, rec.Amount)
		res.Imported++
	}
	log.Printf("DUMP %s imported=%d failed=%d", name, res.Imported, res.Failed)

	if err := im.moveToProcessed(name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	}
	return res
}

// decodeDump accepts either an array of records or a single object.
func decodeDump(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var single map[string]any
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []map[string]any{single}, nil
}

func (im *Importer) listDumpFiles() ([]string, error) {
	entries, err := os.ReadDir(im.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isDumpFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func isDumpFile(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".json"
}

// moveToProcessed moves a handled dump into dir/processed/<name>. Rename
// first, copy+remove as fallback for cross-device moves.
func (im *Importer) moveToProcessed(name string) error {
	processedDir := filepath.Join(im.dir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return err
	}
	src := filepath.Join(im.dir, name)
	dst := filepath.Join(processedDir, name)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
