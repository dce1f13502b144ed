// Package delta turns monthly cumulative extracts into month-to-date amounts.
//
// For every dimension key the cumulative amounts of month m-1 are shifted onto
// month m and subtracted, so delta(m) = cumulative(m) - cumulative(m-1). A key
// missing on either side of that pairing counts as zero there: a key that stops
// being reported produces a reversing row in the following month.
package delta

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/epm-tools/mtd/internal/model"
)

// Extractor reads the data table of one monthly file.
type Extractor interface {
	Extract(ctx context.Context, file model.MonthlyFile) (model.Table, error)
}

// Engine loads validated monthly files into one observation table for Derive.
type Engine struct {
	extractor Extractor
	workers   int
	logger    *zap.Logger
}

// NewEngine creates an Engine that reads up to workers files at once.
func NewEngine(extractor Extractor, workers int, logger *zap.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{extractor: extractor, workers: workers, logger: logger}
}

// Load extracts all files and concatenates their rows, tagged with each file's
// period, in file order.
func (e *Engine) Load(ctx context.Context, files []model.MonthlyFile) ([]model.Observation, error) {
	tables := make([]model.Table, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			t, err := e.extractor.Extract(ctx, f)
			if err != nil {
				return fmt.Errorf("extracting %s: %w", f.Name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}
	obs := make([]model.Observation, 0, total)
	for i, t := range tables {
		for _, r := range t.Rows {
			obs = append(obs, model.Observation{Row: r, Year: files[i].Year, Month: files[i].Month})
		}
		e.logger.Debug("loaded file",
			zap.String("op", "delta.Load"),
			zap.String("file", files[i].Name),
			zap.Int("rows", len(t.Rows)))
	}
	return obs, nil
}

// slot identifies a dimension key within one period.
type slot struct {
	key   model.Key
	year  int
	month int
}

type sums struct {
	amount    decimal.Decimal
	amountEUR decimal.Decimal
	matched   bool
}

// joined is one row of the outer join between observations and the shifted view.
type joined struct {
	slot
	seq    int // position in join output, for stable ordering
	amount decimal.Decimal
	eur    decimal.Decimal
	next   decimal.Decimal
	nextE  decimal.Decimal
}

// Derive computes the delta records for obs. Rows past closing are dropped, as
// are rows where both amounts are zero and, in single-currency modes, rows where
// the selected amount is zero. Output is sorted by year, month, then key.
func Derive(obs []model.Observation, closing int, mode model.CurrencyMode) []model.DeltaRecord {
	if len(obs) == 0 {
		return nil
	}

	// The previous month's view: totals per key, shifted one month forward.
	shifted := make(map[slot]*sums)
	var order []slot
	for _, o := range obs {
		s := slot{key: o.Key, year: o.Year, month: o.Month + 1}
		agg, ok := shifted[s]
		if !ok {
			agg = &sums{}
			shifted[s] = agg
			order = append(order, s)
		}
		agg.amount = agg.amount.Add(o.Amount)
		agg.amountEUR = agg.amountEUR.Add(o.AmountEUR)
	}

	// Full outer join on (key, year, month). Every observation is kept as is;
	// shifted totals nobody matched come through with zero current amounts.
	rows := make([]joined, 0, len(obs)+len(order))
	for _, o := range obs {
		j := joined{
			slot:   slot{key: o.Key, year: o.Year, month: o.Month},
			amount: o.Amount,
			eur:    o.AmountEUR,
		}
		if agg, ok := shifted[j.slot]; ok {
			agg.matched = true
			j.next, j.nextE = agg.amount, agg.amountEUR
		}
		j.seq = len(rows)
		rows = append(rows, j)
	}
	for _, s := range order {
		agg := shifted[s]
		if agg.matched {
			continue
		}
		rows = append(rows, joined{slot: s, seq: len(rows), next: agg.amount, nextE: agg.amountEUR})
	}

	var out []model.DeltaRecord
	var seqs []int
	for _, j := range rows {
		if j.month > closing {
			continue
		}
		rec := model.DeltaRecord{
			Key:   j.key,
			Year:  j.year,
			Month: j.month,
			LCC:   j.amount.Sub(j.next),
			EUR:   j.eur.Sub(j.nextE),
		}
		if rec.LCC.IsZero() && rec.EUR.IsZero() {
			continue
		}
		if !keep(rec, mode) {
			continue
		}
		out = append(out, rec)
		seqs = append(seqs, j.seq)
	}

	sortRecords(out, seqs)
	return out
}

// keep applies the per-currency zero filter of single-currency modes.
func keep(rec model.DeltaRecord, mode model.CurrencyMode) bool {
	switch mode {
	case model.CurrencyLCCOnly:
		return !rec.LCC.IsZero()
	case model.CurrencyEUROnly:
		return !rec.EUR.IsZero()
	default:
		return true
	}
}

// sortRecords orders by year and month; ties fall back to the key and then to
// join order so repeated runs give identical output.
func sortRecords(recs []model.DeltaRecord, seqs []int) {
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		ra, rb := recs[a], recs[b]
		if c := cmp.Compare(ra.Year, rb.Year); c != 0 {
			return c
		}
		if c := cmp.Compare(ra.Month, rb.Month); c != 0 {
			return c
		}
		if c := ra.Key.Compare(rb.Key); c != 0 {
			return c
		}
		return cmp.Compare(seqs[a], seqs[b])
	})
	sorted := make([]model.DeltaRecord, len(recs))
	for i, k := range idx {
		sorted[i] = recs[k]
	}
	copy(recs, sorted)
}
