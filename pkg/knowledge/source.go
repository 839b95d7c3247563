package knowledge

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/adapter"
)

// DocumentSource enumerates and opens the PDF documents of the knowledge base.
type DocumentSource interface {
	// List returns document names in a stable order.
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

func isPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

// DirSource reads the PDFs directly inside a local directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read knowledge directory", goerr.V("dir", s.dir))
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isPDF(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open document", goerr.V("dir", s.dir), goerr.V("name", name))
	}
	return f, nil
}

// BucketSource reads the PDFs under a Cloud Storage prefix. Names are relative to the prefix.
type BucketSource struct {
	storage adapter.Storage
	prefix  string
}

func NewBucketSource(storage adapter.Storage, prefix string) *BucketSource {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &BucketSource{storage: storage, prefix: prefix}
}

func (s *BucketSource) List(ctx context.Context) ([]string, error) {
	keys, err := s.storage.List(ctx, s.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge objects", goerr.V("prefix", s.prefix))
	}

	var names []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, s.prefix)
		if name == "" || strings.Contains(name, "/") || !isPDF(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *BucketSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.storage.Get(ctx, s.prefix+name)
}
