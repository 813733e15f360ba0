package summarizer

import (
	"fmt"
	"strings"
)

// Formatter converts a Summary to text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Segmentation Summary"))

	// Input
	fmt.Fprintf(&b, "## %s\n\n", t("Input"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Video"), s.Video.Path)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Frames"), s.Video.FrameCount)
	if s.Video.Width > 0 && s.Video.Height > 0 {
		fmt.Fprintf(&b, "| %s | %dx%d |\n", t("Frame Size"), s.Video.Width, s.Video.Height)
	}
	if s.Video.FrameRate > 0 {
		fmt.Fprintf(&b, "| %s | %.2f fps |\n", t("Frame Rate"), s.Video.FrameRate)
	}
	if s.Video.Codec != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Codec"), s.Video.Codec)
	}
	b.WriteString("\n")

	// Prompt
	fmt.Fprintf(&b, "## %s\n\n", t("Prompt"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Kind"), t(s.Prompt.Kind))
	fmt.Fprintf(&b, "| %s | %d |\n", t("Pivot Frame"), s.Prompt.Pivot)
	switch {
	case s.Prompt.Box != "":
		fmt.Fprintf(&b, "| %s | %s |\n", t("Box"), s.Prompt.Box)
	case s.Prompt.Points > 0:
		fmt.Fprintf(&b, "| %s | %d |\n", t("Points"), s.Prompt.Points)
	}
	fmt.Fprintf(&b, "| %s | %d |\n", t("Object ID"), s.Prompt.ObjectID)
	b.WriteString("\n")

	// Segments
	if len(s.Segments) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Segments"))
		fmt.Fprintf(&b, "| %s | %s | %s |\n|---|---|---|\n", t("Direction"), t("Frames"), t("Range"))
		for _, seg := range s.Segments {
			fmt.Fprintf(&b, "| %s | %d | %d → %d |\n", t(seg.Direction), seg.Frames, seg.First, seg.Last)
		}
		b.WriteString("\n")
	}

	// Stage timings
	if len(s.Stages) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Stage Timings"))
		fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Stage"), t("Duration"))
		var total int64
		for _, st := range s.Stages {
			fmt.Fprintf(&b, "| %s | %d ms |\n", t(st.Stage), st.DurationMs)
			total += st.DurationMs
		}
		fmt.Fprintf(&b, "| **%s** | **%d ms** |\n", t("Total"), total)
		b.WriteString("\n")
	}

	// Outputs
	if len(s.Outputs) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Outputs"))
		fmt.Fprintf(&b, "| %s | %s | %s |\n|---|---|---|\n", t("Kind"), t("Path"), t("Size"))
		for _, out := range s.Outputs {
			size := "-"
			if out.FileSize > 0 {
				size = formatBytes(out.FileSize)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", t(out.Kind), out.Path, size)
		}
		b.WriteString("\n")
	}

	// Settings
	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	sessions := t("Sequential")
	if s.Settings.ConcurrentSessions {
		sessions = t("Concurrent")
	}
	fmt.Fprintf(&b, "| %s | %s |\n", t("Sessions"), sessions)
	if s.Settings.Workers > 0 {
		fmt.Fprintf(&b, "| %s | %d |\n", t("Workers"), s.Settings.Workers)
	}
	if s.Settings.Device != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Device"), s.Settings.Device)
	}
	if s.Settings.Codec != "" {
		fmt.Fprintf(&b, "| %s | %s @ %.2f fps |\n", t("Encoding"), s.Settings.Codec, s.Settings.Framerate)
	}
	b.WriteString("\n")

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format("2006-01-02 15:04:05"))
	if f.version != "" {
		footer += fmt.Sprintf(" (pivotseg %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
