package storage

import "io"

// Upload is a file received from a client, decoupled from multipart
// plumbing so services can be tested without HTTP.
type Upload struct {
	FileName string
	Content  io.Reader
}

// FileStore persists uploaded files and returns the relative path under
// which they were stored.
type FileStore interface {
	Save(dir, fileName string, content io.Reader) (string, error)
	Remove(path string) error
}
