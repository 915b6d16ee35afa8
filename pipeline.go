package c64conv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	defaultWorkers = 10

	// Ignore any file greater than 64 MB
	maxFileSize = 64 << (10 * 2)
)

var errWalkCancelled = errors.New("c64conv: walk cancelled")

var imageExtensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// IsImage reports whether file has the extension of a supported image format.
func IsImage(file string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(file))]
	return ok
}

func (c *Converter) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if ctx.Err() != nil {
				return errWalkCancelled
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || info.Size() > maxFileSize || !IsImage(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errWalkCancelled
			}

			return nil
		})
	}()
	return out, errc, nil
}

// outputDir returns where the files for the image at file are written. With
// an output directory set, the layout under base is mirrored beneath it.
func (c *Converter) outputDir(base, file string) (string, error) {
	if c.opt.OutDir == "" {
		return "", nil
	}

	rel, err := filepath.Rel(base, filepath.Dir(file))
	if err != nil {
		return "", err
	}
	// Scanning a single file
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = "."
	}

	dir := filepath.Join(c.opt.OutDir, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

func (c *Converter) convertWorker(ctx context.Context, base string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}

			dir, err := c.outputDir(base, file)
			if err != nil {
				errc <- err
				return
			}

			// A picture that can't be converted shouldn't stop the rest
			if _, err := c.convertFile(file, "", dir); err != nil {
				var pathErr *os.PathError
				if errors.As(err, &pathErr) {
					errc <- err
					return
				}
				c.logger.Warn("conversion failed", zap.String("file", file), zap.Error(err))
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan converts every image found under path using a pool of workers.
// Program and loader files are written next to each image unless an output
// directory is set, in which case the directory layout under path is
// recreated there. An image whose files would overwrite those of another is
// skipped.
func (c *Converter) Scan(ctx context.Context, path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findImages(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	workers := c.opt.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	for i := 0; i < workers; i++ {
		errc, err := c.convertWorker(ctx, dir, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
