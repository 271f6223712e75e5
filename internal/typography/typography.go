// Package typography measures text with a real TrueType face so that text
// wrapping matches what the export renderer draws.
package typography

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Measurer implements document.Measurer on top of a parsed TrueType font.
// Faces are cached per font size. Safe for concurrent use.
type Measurer struct {
	font *truetype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// New parses ttf and returns a measurer for it.
func New(ttf []byte) (*Measurer, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Measurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// Default returns a measurer for the embedded Go Regular font.
func Default() *Measurer {
	m, err := New(goregular.TTF)
	if err != nil {
		// goregular is compiled in; a parse failure is a build defect.
		panic(err)
	}
	return m
}

// Font returns the parsed font.
func (m *Measurer) Font() *truetype.Font { return m.font }

// Face returns the cached face for a font size in pixels.
func (m *Measurer) Face(size float64) font.Face {
	if size <= 0 {
		size = 16
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if face, ok := m.faces[size]; ok {
		return face
	}
	face := truetype.NewFace(m.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	m.faces[size] = face
	return face
}

// Measure returns the advance width of line in pixels.
func (m *Measurer) Measure(line string, fontSize float64) float64 {
	if line == "" {
		return 0
	}
	face := m.Face(fontSize)

	m.mu.Lock()
	adv := font.MeasureString(face, line)
	m.mu.Unlock()

	return math.Ceil(float64(adv) / 64)
}
