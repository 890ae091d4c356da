// Copyright 2024 The Brokenfuse Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
)

// File is a pass-through regular-file backend: reads and writes go
// straight to an *os.File opened under the factory's root. Ported from
// original_source's FileStorage, which unlinks its backing path on drop;
// Close does the same here.
type File struct {
	path string
	f    *os.File
}

var _ Storage = (*File)(nil)

func newFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return &File{path: path, f: f}, nil
}

func (s *File) Len() int64 {
	fi, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (s *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if errors.Is(err, io.EOF) {
		// Short reads at EOF are not an error at the storage layer; the
		// dispatcher decides how to report a short read to the kernel.
		return n, nil
	}
	return n, err
}

func (s *File) WriteAt(data []byte, off int64) (int, error) {
	return s.f.WriteAt(data, off)
}

func (s *File) Close() error {
	closeErr := s.f.Close()
	removeErr := os.Remove(s.path)
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}

// FileFactory creates File-backed storage rooted at a directory supplied
// on the CLI. Each inode gets its own "file-<ino>" path, matching
// original_source's FileSFactory naming.
type FileFactory struct {
	Root string
}

var _ Factory = FileFactory{}

func NewFileFactory(root string) FileFactory {
	return FileFactory{Root: root}
}

func (f FileFactory) Create(ino ftypes.Ino) (Storage, error) {
	path := filepath.Join(f.Root, fmt.Sprintf("file-%d", ino))
	return newFile(path)
}
