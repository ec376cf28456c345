package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/jeromelesaux/dhuff"
)

const buffersize = 64 * 1024

type archiver struct {
	name   string
	dir    string // extract directory
	log    logger.Logger
	force  bool
	stdout bool
	ind    indicator
}

// compress packs src into a new archive, replacing any previous one.
func (a *archiver) compress(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("\"%s\" is not a file", src)
	}

	out, err := os.Create(a.name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(out, buffersize)

	a.ind.start(src, "Freezing")
	w, err := dhuff.NewWriter(bw,
		dhuff.WithName(filepath.Base(src)),
		dhuff.WithCreated(st.ModTime()),
		dhuff.WithLogger(a.log))
	if err == nil {
		_, err = io.Copy(w, bufio.NewReaderSize(f, buffersize))
	}
	if err == nil {
		err = w.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(a.name)
		return fmt.Errorf("cannot compress %s: %w", src, err)
	}

	packed, err := os.Stat(a.name)
	if err != nil {
		return err
	}
	a.ind.finishRatio("Frozen", packed.Size(), st.Size())
	a.log.Debugf("%s: %s", a.name, w.Header().String())
	return nil
}

func (a *archiver) open() (*os.File, *dhuff.Reader, error) {
	f, err := os.Open(a.name)
	if err != nil {
		return nil, nil, err
	}
	r, err := dhuff.NewReader(bufio.NewReaderSize(f, buffersize), dhuff.WithLogger(a.log))
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return f, r, nil
}

// extractName is the file name stored in the header, or the archive name
// without its extension when the header has none.
func (a *archiver) extractName(h dhuff.Header) (string, error) {
	name := h.Name
	if name == "" {
		base := filepath.Base(a.name)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if isDirectoryTraversal(name) || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("invalid path name \"%s\"", name)
	}
	return name, nil
}

func (a *archiver) extract() error {
	f, r, err := a.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if a.stdout {
		_, err = io.Copy(os.Stdout, r)
		return err
	}

	h := r.Header()
	name, err := a.extractName(h)
	if err != nil {
		return err
	}
	name = filepath.Join(a.dir, name)
	if _, err := os.Stat(name); err == nil && !a.force {
		return fmt.Errorf("\"%s\" already exists, use -f to over write", name)
	}

	out, err := os.Create(name)
	if err != nil {
		return err
	}
	a.ind.start(name, "Melting ")
	bw := bufio.NewWriterSize(out, buffersize)
	_, err = io.Copy(bw, r)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("cannot extract %s: %w", name, err)
	}
	if !h.Created.IsZero() {
		if err := os.Chtimes(name, h.Created, h.Created); err != nil {
			a.log.Infof("cannot set time of %s: %v", name, err)
		}
	}
	a.ind.finish("Melted  ")
	return nil
}

// test decodes the whole archive and checks its trailer.
func (a *archiver) test() error {
	f, r, err := a.open()
	if err != nil {
		return err
	}
	defer f.Close()

	a.ind.start(r.Header().Name, "Testing ")
	if _, err := io.Copy(io.Discard, r); err != nil {
		if errors.Is(err, dhuff.ErrChecksum) {
			a.ind.finish("CRC error")
		}
		return err
	}
	a.ind.finish("Tested  ")
	return nil
}

func (a *archiver) list() error {
	f, r, err := a.open()
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	h := r.Header()
	fmt.Fprintf(os.Stdout, "%s\n", h.String())
	fmt.Fprintf(os.Stdout, "packed %d bytes\n", st.Size())
	return nil
}

// isDirectoryTraversal reports whether path holds a ".." element.
func isDirectoryTraversal(path string) bool {
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if elem == ".." {
			return true
		}
	}
	return false
}
