package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyDocument is returned when a document contains no text.
var ErrEmptyDocument = errors.New("document is empty")

// ReadDocument returns the extracted text of a proposal. A path of "-" reads stdin.
func ReadDocument(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-supplied document path
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	return text, nil
}
