package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pdf2epub/book"
	"pdf2epub/common"
	"pdf2epub/config"
)

// Extractor pulls plain text from document bytes.
type Extractor interface {
	Extract(ctx context.Context, data []byte, p common.Progress) (string, error)
}

// Structurer infers book structure from plain text.
type Structurer interface {
	Structure(ctx context.Context, text string, p common.Progress) (*book.Book, error)
}

// Packager produces final archive.
type Packager interface {
	Package(ctx context.Context, b *book.Book) ([]byte, error)
}

// Progress ranges of the phases, percent of the whole conversion.
const (
	extractStart   = 10
	structureStart = 40
	packageStart   = 90
	complete       = 100
)

// Pipeline runs conversion phases sequentially. It is not safe to Run the same
// Pipeline concurrently, Step may be called from any goroutine.
type Pipeline struct {
	ex  Extractor
	st  Structurer
	pk  Packager
	log *zap.Logger

	// Report receives intermediate results when set.
	Report *config.Report

	mu   sync.Mutex
	step common.Step
	last float64
	sink common.Progress
	book *book.Book
}

func NewPipeline(ex Extractor, st Structurer, pk Packager, log *zap.Logger) *Pipeline {
	return &Pipeline{
		ex:   ex,
		st:   st,
		pk:   pk,
		log:  log,
		sink: common.Discard,
	}
}

// Step returns current conversion state.
func (pl *Pipeline) Step() common.Step {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.step
}

// Book returns book structured by the last run, nil if run did not get that
// far.
func (pl *Pipeline) Book() *book.Book {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.book
}

// Run converts document bytes into EPUB archive. Any phase error stops the
// run, sink then receives (0, FAILED).
func (pl *Pipeline) Run(ctx context.Context, data []byte, sink common.Progress) (out []byte, err error) {
	if sink == nil {
		sink = common.Discard
	}
	pl.mu.Lock()
	pl.step, pl.last, pl.sink, pl.book = common.StepNone, 0, sink, nil
	pl.mu.Unlock()

	defer func(start time.Time) {
		if err != nil {
			pl.fail()
			pl.log.Debug("Conversion failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		pl.log.Debug("Conversion finished", zap.Duration("elapsed", time.Since(start)), zap.Int("size", len(out)))
	}(time.Now())

	pl.enter(common.StepParsingPDF, 0)
	if pl.ex == nil {
		return nil, fmt.Errorf("unable to extract text: %w: no text extractor", common.ErrDependencyUnavailable)
	}
	pl.report(extractStart, common.StepParsingPDF)

	text, err := pl.ex.Extract(ctx, data, pl.scope(extractStart, structureStart, common.StepParsingPDF))
	if err != nil {
		return nil, fmt.Errorf("unable to extract text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pl.Report.StoreData("extracted.txt", []byte(text))

	pl.enter(common.StepAnalyzingContent, structureStart)
	if pl.st == nil {
		return nil, fmt.Errorf("unable to structure content: %w: no content structurer", common.ErrDependencyUnavailable)
	}
	b, err := pl.st.Structure(ctx, text, pl.scope(structureStart, packageStart, common.StepAnalyzingContent))
	if err != nil {
		return nil, fmt.Errorf("unable to structure content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pl.mu.Lock()
	pl.book = b
	pl.mu.Unlock()
	pl.storeBook(b)

	pl.enter(common.StepCreatingEpub, packageStart)
	if pl.pk == nil {
		return nil, fmt.Errorf("unable to create epub: %w: no packager", common.ErrDependencyUnavailable)
	}
	out, err = pl.pk.Package(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("unable to create epub: %w", err)
	}

	pl.enter(common.StepComplete, complete)
	return out, nil
}

func (pl *Pipeline) storeBook(b *book.Book) {
	if pl.Report == nil {
		return
	}
	if data, err := json.MarshalIndent(b, "", "  "); err == nil {
		pl.Report.StoreData("book.json", data)
	} else {
		pl.log.Warn("Unable to store structured book", zap.Error(err))
	}
	pl.Report.StoreData("book.txt", []byte(b.String()))
}

func (pl *Pipeline) enter(step common.Step, percent float64) {
	pl.mu.Lock()
	pl.step = step
	pl.mu.Unlock()
	pl.report(percent, step)
}

// report keeps progress seen by the sink non-decreasing.
func (pl *Pipeline) report(percent float64, step common.Step) {
	pl.mu.Lock()
	percent = max(percent, pl.last)
	pl.last = percent
	sink := pl.sink
	pl.mu.Unlock()

	sink.Report(percent, step)
}

func (pl *Pipeline) fail() {
	pl.mu.Lock()
	pl.step, pl.last = common.StepFailed, 0
	sink := pl.sink
	pl.mu.Unlock()

	sink.Report(0, common.StepFailed)
}

// scope maps phase progress 0..100 into [lo, hi] of the whole conversion.
func (pl *Pipeline) scope(lo, hi float64, step common.Step) common.Progress {
	return common.ProgressFunc(func(percent float64, _ common.Step) {
		percent = min(max(percent, 0), 100)
		pl.report(lo+(hi-lo)*percent/100, step)
	})
}
