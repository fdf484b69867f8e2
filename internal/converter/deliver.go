package converter

import (
	"fmt"
	"os"
	"path/filepath"
)

// Deliverer hands converted output to whatever surface requested it.
type Deliverer interface {
	Deliver(data []byte, filename, mimeType string) error
}

// DeliverFunc adapts a function to the Deliverer interface.
type DeliverFunc func(data []byte, filename, mimeType string) error

func (f DeliverFunc) Deliver(data []byte, filename, mimeType string) error {
	return f(data, filename, mimeType)
}

// DirDeliverer writes output files into Dir.
type DirDeliverer struct {
	Dir string

	// LastPath is the path of the most recent delivered file.
	LastPath string
}

func (d *DirDeliverer) Deliver(data []byte, filename, _ string) error {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	d.LastPath = path
	return nil
}
