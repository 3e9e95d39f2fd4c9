package main

import (
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
)

// compiled is the outcome for one input. readErr means the file never
// reached the compiler; err is the compile failure.
type compiled struct {
	file    markupFile
	path    string
	res     *markup.Result
	err     error
	readErr error
}

// indexedPath keeps results in argument order.
type indexedPath struct {
	idx  int
	path string
}

// compileAll compiles paths with a pool of workers sharing the compiler.
// Results come back in input order. The file id of each input is its index.
func compileAll(ctx context.Context, a *app, paths []string, stdin io.Reader, workers int) []compiled {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = max(min(workers, len(paths)), 1)

	results := make([]compiled, len(paths))
	pathCh := make(chan indexedPath, workers)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for item := range pathCh {
				results[item.idx] = compileOne(ctx, a, item, stdin)
			}
		}()
	}

	for idx, path := range paths {
		pathCh <- indexedPath{idx: idx, path: path}
	}

	close(pathCh)
	wg.Wait()

	return results
}

func compileOne(ctx context.Context, a *app, item indexedPath, stdin io.Reader) compiled {
	out := compiled{path: item.path}

	file, err := readMarkupFile(item.path, stdin, a.cfg.MaxFileSizeBytes())
	if err != nil {
		out.readErr = err

		return out
	}

	out.file = file

	_ = a.red.Observe(ctx, "cli.compile", func(ctx context.Context) error {
		out.res, out.err = a.compiler.Compile(ctx, item.idx, file.source)

		return out.err
	})

	if out.err != nil {
		a.logger.DebugContext(ctx, "compile failed", "path", item.path, "error", out.err)
	}

	return out
}
