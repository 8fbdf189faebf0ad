package cmd

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// stdioPath selects stdin or stdout instead of a backup file.
const stdioPath = "-"

// backupTables reads a --tables list from config. Names are trimmed,
// lower-cased and deduplicated; nil means every table.
func backupTables(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

func normalizeTables(values []string) []string {
	names := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		name := strings.ToLower(strings.TrimSpace(v))
		return name, name != ""
	}))
	if len(names) == 0 {
		return nil
	}
	return names
}

// gzipped reports whether a backup path is compressed, either by flag or by
// a .gz suffix.
func gzipped(path string, flag bool) bool {
	return flag || (path != stdioPath && strings.HasSuffix(strings.ToLower(path), ".gz"))
}

// createBackup opens path for writing. The returned close func flushes gzip
// before closing the file.
func createBackup(cmd *cobra.Command, path string, compress bool) (io.Writer, func() error, error) {
	var (
		w       = cmd.OutOrStdout()
		closers []func() error
	)
	if path != stdioPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("create backup file: %w", err)
		}
		w = f
		closers = append(closers, f.Close)
	}
	if compress {
		gz := gzip.NewWriter(w)
		w = gz
		closers = append([]func() error{gz.Close}, closers...)
	}
	return w, closeAll(closers), nil
}

// openBackup opens path for reading, unwrapping gzip when asked to.
func openBackup(cmd *cobra.Command, path string, compress bool) (io.Reader, func() error, error) {
	var (
		r       = cmd.InOrStdin()
		closers []func() error
	)
	if path != stdioPath {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, nil, fmt.Errorf("open backup file: %w", err)
		}
		r = f
		closers = append(closers, f.Close)
	}
	if compress {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			_ = closeAll(closers)()
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r = gzr
		closers = append([]func() error{gzr.Close}, closers...)
	}
	return r, closeAll(closers), nil
}

func closeAll(closers []func() error) func() error {
	return func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
}

// tableProgress prints one line per exported table once it is done.
type tableProgress struct {
	out    io.Writer
	totals map[string]int
	counts map[string]int
}

func newTableProgress(out io.Writer) *tableProgress {
	return &tableProgress{out: out, totals: map[string]int{}, counts: map[string]int{}}
}

func (p *tableProgress) StartTable(table string, total int) {
	p.totals[table] = max(total, 0)
	p.counts[table] = 0
}

func (p *tableProgress) Increment(table string, delta int) {
	if delta > 0 {
		p.counts[table] += delta
	}
}

func (p *tableProgress) FinishTable(table string) {
	fmt.Fprintf(p.out, "exported %s: %d/%d rows\n", table, p.counts[table], p.totals[table])
	delete(p.totals, table)
	delete(p.counts, table)
}
