package cli

import (
	"bufio"
	"io"
	"strings"
)

// Confirmer asks the operator to confirm a destructive command.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// IOConfirmer reads confirmation responses from an io.Reader.
type IOConfirmer struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmer constructs a confirmer from the provided reader and writer.
func NewIOConfirmer(input io.Reader, output io.Writer) *IOConfirmer {
	return &IOConfirmer{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
// An empty or unreadable response declines.
func (c *IOConfirmer) Confirm(prompt string) (bool, error) {
	if c.writer != nil {
		if _, err := io.WriteString(c.writer, prompt); err != nil {
			return false, err
		}
	}

	response, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
