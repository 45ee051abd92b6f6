package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"pdf2epub/book"
	"pdf2epub/config"
)

const outExt = ".epub"

// buildOutputPath returns constructed output file path/name. It uses either
// default naming scheme (source base name) or user-defined template which may
// introduce subdirectories. It cleans up path and if requested transliterates
// it.
func buildOutputPath(b *book.Book, src, dst string, cfg *config.PackagerConfig, log *zap.Logger) string {
	defaultFile := buildDefaultFileName(src, cfg)

	if cfg.OutputNameTemplate == "" || b == nil {
		return filepath.Join(dst, defaultFile)
	}

	expandedName := expandOutputNameTemplate(b, src, cfg, log)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(dst, defaultFile)
	}

	return assemblePathWithSubdirs(dst, expandedName, cfg)
}

func buildDefaultFileName(src string, cfg *config.PackagerConfig) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if cfg.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + outExt
}

func expandOutputNameTemplate(b *book.Book, src string, cfg *config.PackagerConfig, log *zap.Logger) string {
	expandedName, err := expandTemplate(b, config.OutputNameTemplateFieldName, cfg.OutputNameTemplate, src, cfg.Language)
	if err != nil {
		log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(filepath.FromSlash(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, cfg *config.PackagerConfig) string {
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return filepath.Join(outDir, config.CleanFileName("")+outExt)
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], cfg) + outExt
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, cfg))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

// splitAndCleanPath drops empty, "." and ".." segments so template cannot
// escape destination directory.
func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		next := strings.TrimSuffix(head, string(os.PathSeparator))
		if next == "" || next == path {
			// volume name could not be split any further
			break
		}
		head, path = next, next
	}

	return segments
}

func cleanPathSegment(segment string, cfg *config.PackagerConfig) string {
	if cfg.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
