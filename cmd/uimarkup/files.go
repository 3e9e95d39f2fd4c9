package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/uimarkup/pkg/config"
	"github.com/Sumatoshi-tech/uimarkup/pkg/safeconv"
	"github.com/Sumatoshi-tech/uimarkup/pkg/textutil"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

var (
	// ErrNoMarkupFiles indicates a directory walk found nothing to compile.
	ErrNoMarkupFiles = errors.New("no markup files found")
	// ErrDirectoryPath indicates a file operation was attempted on a directory.
	ErrDirectoryPath = errors.New("path points to a directory")
	// ErrEmptyPath indicates a path argument was empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrPathContainsNUL indicates the path contains a NUL byte.
	ErrPathContainsNUL = errors.New("path contains NUL byte")
	// ErrFileTooLarge indicates a file exceeds files.max_file_size.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// markupFile is one compilation input.
type markupFile struct {
	path   string
	source []byte
}

// collectMarkupFiles expands args into markup file paths. Directories are
// walked for files with a configured extension; explicit files are kept as
// given. No args means the current directory.
func collectMarkupFiles(args []string, files config.FilesConfig) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	var out []string

	for _, arg := range args {
		if arg == stdinPath {
			out = append(out, arg)

			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			out = append(out, arg)

			continue
		}

		found, err := walkMarkupDir(arg, files)
		if err != nil {
			return nil, err
		}

		out = append(out, found...)
	}

	if len(out) == 0 {
		return nil, ErrNoMarkupFiles
	}

	return out, nil
}

func walkMarkupDir(root string, files config.FilesConfig) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil //nolint:nilerr // the root itself is always walked
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") || (files.SkipVendor && enry.IsVendor(rel+"/")) {
				return filepath.SkipDir
			}

			return nil
		}

		if !slices.Contains(files.Extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		if files.SkipVendor && enry.IsVendor(rel) {
			return nil
		}

		found = append(found, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(found)

	return found, nil
}

// readMarkupFile reads and prepares one input. maxSize <= 0 disables the
// size check.
func readMarkupFile(path string, stdin io.Reader, maxSize int64) (markupFile, error) {
	var (
		data []byte
		err  error
	)

	if path == stdinPath {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return markupFile{}, fmt.Errorf("read stdin: %w", err)
		}
	} else {
		data, _, err = safeReadFile(path)
		if err != nil {
			return markupFile{}, err
		}
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		return markupFile{}, fmt.Errorf("%w: %s is %s (max %s)", ErrFileTooLarge, path,
			humanize.Bytes(safeconv.ByteCount(len(data))), humanize.Bytes(safeconv.ByteCount(maxSize)))
	}

	source, err := textutil.Prepare(data)
	if err != nil {
		return markupFile{}, fmt.Errorf("%s: %w", path, err)
	}

	return markupFile{path: path, source: source}, nil
}

func safeReadFile(path string) (content []byte, resolvedPath string, err error) {
	resolvedPath, err = resolveUserFilePath(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	content, err = os.ReadFile(resolvedPath) //nolint:gosec // resolvedPath is cleaned and stat-checked
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", resolvedPath, err)
	}

	return content, resolvedPath, nil
}

func resolveUserFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("%w: %q", ErrPathContainsNUL, path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryPath, absPath)
	}

	return absPath, nil
}

// openOutput returns stdout-like w, or a created file when path is set.
func openOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}

	f, err := os.Create(path) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}

	return f, f.Close, nil
}
