package terminal

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestColor_Disabled(t *testing.T) {
	WithColorsDisabled(func() {
		if Color(Cyan) != "" {
			t.Error("expected empty string when colors disabled")
		}
	})
	if !ColorsEnabled() {
		t.Error("WithColorsDisabled must restore the previous state")
	}
}

func TestShouldUseColor_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR must win over CLICOLOR_FORCE")
	}
}

func TestShouldUseColor_Force(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	t.Setenv("CLICOLOR_FORCE", "1")
	t.Setenv("CLICOLOR", "")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE should enable color without a TTY")
	}
}

func TestLogger_Log(t *testing.T) {
	WithColorsDisabled(func() {
		var buf bytes.Buffer
		l := NewLoggerTo(&buf)
		l.Logf(StyleWarning, "hello %d", 42)

		if got := buf.String(); got != "[repowiki] hello 42\n" {
			t.Errorf("got %q", got)
		}
	})
}

func TestLogger_Verbosef(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)

	l.Verbosef("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}

	l.SetVerbose(true)
	l.Verbosef("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected verbose output, got %q", buf.String())
	}
}

func TestLogger_Sink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)
	sink := l.Sink()

	sink("quiet line", false)
	sink("loud line", true)

	out := buf.String()
	if strings.Contains(out, "quiet line") {
		t.Errorf("non-verbose sink should drop optional lines, got %q", out)
	}
	if !strings.Contains(out, "loud line") {
		t.Errorf("sink should always print marked lines, got %q", out)
	}
}

func TestSpinner_ReportNonTTY(t *testing.T) {
	WithColorsDisabled(func() {
		var buf bytes.Buffer
		s := &Spinner{out: &buf}

		s.Report("Generating A (1/3)", 100.0/3)
		s.Report("Generating B (2/3)", 100.0/3)
		s.Report("Generating C (3/3)", 100.0/3)
		s.Report("extra", 50)

		if s.Percent() != 100 {
			t.Errorf("Percent() = %v, want clamp at 100", s.Percent())
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %q", buf.String())
		}
		if lines[0] != "[repowiki] Generating A (1/3) (33%)" {
			t.Errorf("line 0 = %q", lines[0])
		}
	})
}

func TestSpinner_RunNonTTYStops(t *testing.T) {
	s := &Spinner{out: &bytes.Buffer{}}
	stopped := make(chan struct{})
	stop := Start(s.Run)
	go func() {
		stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not exit")
	}
}

func TestPhaseSpinner_TTYWritesFinalLine(t *testing.T) {
	WithColorsDisabled(func() {
		var buf bytes.Buffer
		s := &PhaseSpinner{out: &buf, isTTY: true, label: "Detecting agents"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.Run(ctx)
		if !strings.Contains(buf.String(), "✓ Detecting agents") {
			t.Errorf("got %q", buf.String())
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30.0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "doc") != "doc" || Plural(0, "doc") != "docs" || Plural(2, "doc") != "docs" {
		t.Error("unexpected pluralization")
	}
}

func TestFormatTime_Nil(t *testing.T) {
	if FormatTime(nil) != "-" {
		t.Errorf("FormatTime(nil) = %q", FormatTime(nil))
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Agent", "Available"}, [][]string{{"claude", "yes"}, {"codex", "no"}})
	for _, want := range []string{"Agent", "Available", "claude", "codex", "yes", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m PickerModel, keys ...string) PickerModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(PickerModel)
	}
	return m
}

func TestPicker_SkipsDisabled(t *testing.T) {
	items := []PickerItem{{Label: "qoder", Disabled: true}, {Label: "claude"}, {Label: "codex", Disabled: true}, {Label: "aider"}}

	m := NewPicker("Choose", items, 0)
	if m.Cursor() != 1 {
		t.Fatalf("initial cursor = %d, want first enabled item", m.Cursor())
	}

	m = press(m, "down")
	if m.Cursor() != 3 {
		t.Errorf("down should skip disabled items, cursor = %d", m.Cursor())
	}
	m = press(m, "down")
	if m.Cursor() != 3 {
		t.Errorf("cursor moved past last item: %d", m.Cursor())
	}
	m = press(m, "k")
	if m.Cursor() != 1 {
		t.Errorf("k should move up to claude, cursor = %d", m.Cursor())
	}
}

func TestPicker_EnterConfirms(t *testing.T) {
	m := press(NewPicker("Choose", []PickerItem{{Label: "a"}, {Label: "b"}}, 0), "j", "enter")
	if !m.Confirmed() || m.Cursor() != 1 {
		t.Errorf("Confirmed() = %v, Cursor() = %d", m.Confirmed(), m.Cursor())
	}
}

func TestPicker_Quit(t *testing.T) {
	m := press(NewPicker("Choose", []PickerItem{{Label: "a"}}, 0), "esc")
	if !m.Quitted() || m.Confirmed() {
		t.Error("esc should quit without confirming")
	}
}

func TestPicker_View(t *testing.T) {
	m := NewPicker("Choose an agent", []PickerItem{{Label: "claude", Detail: "v1.0"}}, 0)
	view := m.View()
	for _, want := range []string{"Choose an agent", "claude", "v1.0", "enter select"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
