package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pdf2epub/archive"
	"pdf2epub/common"
	"pdf2epub/config"
	"pdf2epub/convert/epub"
	"pdf2epub/extract"
	"pdf2epub/state"
	"pdf2epub/structure"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite, env.NoProgress = cmd.Bool("overwrite"), cmd.Bool("no-progress")

	if err := env.LoadStylesheet(); err != nil {
		return err
	}
	if env.Stylesheet != nil {
		if err := epub.CheckStylesheet(env.Stylesheet); err != nil {
			return fmt.Errorf("bad stylesheet %q: %w", env.Cfg.Packager.StylesheetPath, err)
		}
	}

	// fail early, before spending time on extraction
	st, err := structure.New(&env.Cfg.Structurer, env.Log)
	if err != nil {
		return err
	}

	pl := NewPipeline(
		extract.New(&env.Cfg.Extractor, env.Log),
		st,
		epub.New(&epub.ZipWriter{FixZip: env.Cfg.Packager.FixZip}, env.Log,
			epub.WithLanguage(env.Cfg.Packager.Language),
			epub.WithStylesheet(env.Stylesheet),
			epub.WithTransliteration(env.Cfg.Packager.MetadataTransliterate),
		),
		log,
	)
	pl.Report = env.Rpt

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	sink := newConsoleProgress(os.Stdout, !env.NoProgress && config.IsTerminal(os.Stdout), log)
	defer sink.Close()

	return process(ctx, pl, src, dst, sink, env, log)
}

// process handles the core conversion logic independently of CLI framework.
func process(ctx context.Context, pl *Pipeline, src, dst string, sink common.Progress, env *state.LocalEnv, log *zap.Logger) error {
	name, data, err := readSource(ctx, src, env.Cfg.Extractor.MaxPDFSize)
	if err != nil {
		return err
	}
	if err := validatePDF(name, data, env.Cfg.Extractor.MaxPDFSize); err != nil {
		return err
	}

	log.Info("Conversion starting", zap.String("from", name), zap.Int("size", len(data)))

	out, err := pl.Run(ctx, data, sink)
	if err != nil {
		return err
	}

	outputName := buildOutputPath(pl.Book(), name, dst, &env.Cfg.Packager, log)
	if err := writeResult(outputName, out, env.Overwrite, log); err != nil {
		return err
	}

	// Store conversion result for debugging
	env.Rpt.Store("result.epub", outputName)

	log.Info("Conversion completed", zap.String("to", outputName), zap.Int("size", len(out)))
	return nil
}

// readSource resolves source path which is either a PDF file or path to a
// single PDF inside zip archive ("books.zip/dir/book.pdf"). It returns name of
// the document and its content.
func readSource(ctx context.Context, src string, limit int64) (string, []byte, error) {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return "", nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return "", nil, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, head)
		}

		if !fi.Mode().IsRegular() {
			return "", nil, fmt.Errorf("%w: unexpected path mode for (%s) => (%s)", common.ErrInvalidInput, head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return "", nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			name, data, err := archive.ReadSingle(head, tail, isPDFInArchive, limit)
			if err != nil {
				return "", nil, fmt.Errorf("%w: unable to read archive: %w", common.ErrInvalidInput, err)
			}
			return name, data, nil
		}

		if len(tail) != 0 {
			return "", nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		if limit > 0 && fi.Size() > limit {
			return "", nil, fmt.Errorf("%w: %s is too large (%d bytes, limit %d)", common.ErrInvalidInput, head, fi.Size(), limit)
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return "", nil, fmt.Errorf("unable to read source: %w", err)
		}
		return head, data, nil
	}
	return "", nil, fmt.Errorf("input source was not found (%s)", src)
}

func writeResult(outputName string, data []byte, overwrite bool, log *zap.Logger) error {
	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
