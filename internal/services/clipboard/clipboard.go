// Package clipboard mirrors rendered trees to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable reports a system without a clipboard utility.
var ErrUnavailable = errors.New("system clipboard unavailable")

const copyFailedFormat = "copy to clipboard: %w"

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	write       func(string) error
	unsupported bool
}

// NewService constructs a clipboard service backed by the system clipboard.
func NewService() *Service {
	return &Service{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported {
		return ErrUnavailable
	}
	if writeError := service.write(text); writeError != nil {
		return fmt.Errorf(copyFailedFormat, writeError)
	}
	return nil
}

var _ Copier = (*Service)(nil)
