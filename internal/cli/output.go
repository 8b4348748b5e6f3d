package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress is a spinner shown while a command waits on the network or the
// browser. A Progress created in quiet mode prints nothing.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner on w with the given message. When quiet is
// true the returned Progress is inert.
func StartProgress(w io.Writer, quiet bool, message string) *Progress {
	if quiet {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Succeed stops the spinner and prints msg in green.
func (p *Progress) Succeed(msg string) {
	p.stop(text.FgGreen.Sprint(msg))
}

// Fail stops the spinner and prints msg in red.
func (p *Progress) Fail(msg string) {
	p.stop(text.FgRed.Sprint(msg))
}

// Stop stops the spinner without a final message.
func (p *Progress) Stop() {
	p.stop("")
}

func (p *Progress) stop(final string) {
	if p.s == nil {
		return
	}
	if final != "" {
		p.s.FinalMSG = final + "\n"
	}
	p.s.Stop()
	p.s = nil
}

// NewKeyValueTable returns a borderless two-column table writing to w, used
// for status output.
func NewKeyValueTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateRows = false
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: text.Colors{text.Bold}},
	})
	return t
}

// Yes renders a boolean as a colored yes/no.
func Yes(v bool) string {
	if v {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgYellow.Sprint("no")
}
