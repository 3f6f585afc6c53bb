package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSelectionCancelled is returned when the user cancels a selection.
var ErrSelectionCancelled = errors.New("selection cancelled")

// PromptYesNo prompts for a yes/no response. EOF counts as no.
func PromptYesNo(prompt string, reader *bufio.Reader, writer io.Writer) bool {
	for {
		_, _ = fmt.Fprintf(writer, "%s (y/n): ", prompt)
		line, err := ReadLine(reader)
		if err != nil {
			return false
		}

		input := strings.ToLower(line)

		switch input {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// PromptSelection displays a list and prompts the user to select an item.
// Returns 0-based index of selected item or error if cancelled (user enters 0).
func PromptSelection[T any](items []T, prompt string, reader *bufio.Reader, writer io.Writer, display func(index int, item T)) (int, error) {
	for i, item := range items {
		display(i, item)
	}

	for {
		_, _ = fmt.Fprintf(writer, "%s (0 to cancel): ", prompt)
		input, err := ReadLine(reader)
		if err != nil {
			return -1, ErrSelectionCancelled
		}

		num, err := strconv.Atoi(input)
		if err != nil {
			_, _ = fmt.Fprintln(writer, "Please enter a number")
			continue
		}

		if num == 0 {
			return -1, ErrSelectionCancelled
		}

		if num < 1 || num > len(items) {
			_, _ = fmt.Fprintf(writer, "Please enter a number between 1 and %d\n", len(items))
			continue
		}

		return num - 1, nil
	}
}

// PromptString prints prompt and reads one trimmed line. Callers reading several
// answers must share one *bufio.Reader so buffered input is not lost.
func PromptString(prompt string, reader *bufio.Reader, writer io.Writer) (string, error) {
	_, _ = fmt.Fprint(writer, prompt)
	return ReadLine(reader)
}

// ReadLine reads a trimmed line. A final line without a newline is accepted.
func ReadLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
