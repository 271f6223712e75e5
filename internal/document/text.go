package document

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultFontSize  = 16.0
	LineHeightFactor = 1.25
	BoundTextPadding = 4.0
)

// Measurer reports the rendered width of a single line of text.
type Measurer interface {
	Measure(line string, fontSize float64) float64
}

// MonospaceMeasurer approximates every rune as Ratio × fontSize wide.
type MonospaceMeasurer struct {
	Ratio float64
}

func (m MonospaceMeasurer) Measure(line string, fontSize float64) float64 {
	ratio := m.Ratio
	if ratio <= 0 {
		ratio = 0.6
	}
	return float64(utf8.RuneCountInString(line)) * fontSize * ratio
}

// LineHeight returns the line advance for a font size.
func LineHeight(fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return fontSize * LineHeightFactor
}

// LayoutText splits content into display lines. Explicit newlines always
// break; each paragraph is then greedily word-wrapped to maxWidth. A word
// wider than maxWidth is kept whole on its own line. maxWidth <= 0 disables
// wrapping.
func LayoutText(content string, maxWidth, fontSize float64, m Measurer) []string {
	paragraphs := strings.Split(content, "\n")
	lines := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		if maxWidth <= 0 {
			lines = append(lines, strings.Join(words, " "))
			continue
		}

		current := ""
		for _, word := range words {
			if current == "" {
				current = word
				continue
			}
			candidate := current + " " + word
			if m.Measure(candidate, fontSize) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}

	return lines
}

// widestLine returns the measured width of the widest explicit line.
func widestLine(content string, fontSize float64, m Measurer) float64 {
	widest := 0.0
	for _, line := range strings.Split(content, "\n") {
		widest = max(widest, m.Measure(line, fontSize))
	}
	return widest
}

// layoutTextElement recomputes width (auto-width only) and height of a text element.
func layoutTextElement(el *Element, m Measurer) {
	if el.Text == nil {
		el.Text = &TextData{}
	}
	if el.Text.FontSize <= 0 {
		el.Text.FontSize = DefaultFontSize
	}
	fontSize := el.Text.FontSize

	var lines []string
	if el.Text.AutoWidth {
		el.Width = max(widestLine(el.Text.Content, fontSize, m), MinElementSize)
		lines = strings.Split(el.Text.Content, "\n")
	} else {
		el.Width = max(el.Width, MinElementSize)
		lines = LayoutText(el.Text.Content, el.Width, fontSize, m)
	}

	el.Height = float64(max(len(lines), 1)) * LineHeight(fontSize)
}

// TextLines returns the display lines of a text element as laid out by Normalize.
func TextLines(el *Element, m Measurer) []string {
	if el.Text == nil {
		return nil
	}
	if el.Text.AutoWidth {
		return strings.Split(el.Text.Content, "\n")
	}
	return LayoutText(el.Text.Content, el.Width, el.Text.FontSize, m)
}
