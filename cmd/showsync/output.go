package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// heading prints a section title, bolded when writing to a terminal.
func heading(out io.Writer, title string) {
	if shouldColorize(out) {
		fmt.Fprintln(out, ansiBold+title+ansiReset)
		return
	}
	fmt.Fprintln(out, title)
}

func percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
