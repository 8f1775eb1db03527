package cards

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type weight int

const (
	regular weight = iota
	bold
)

type faceKey struct {
	weight weight
	size   float64
}

// fontSet caches faces per weight and pixel size. Faces are not safe for
// concurrent drawing; the Renderer serializes access.
type fontSet struct {
	mu    sync.Mutex
	fonts [2]*opentype.Font
	faces map[faceKey]font.Face
}

func loadFonts(path string) (*fontSet, error) {
	set := &fontSet{faces: make(map[faceKey]font.Face)}
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", path, err)
		}
		set.fonts = [2]*opentype.Font{parsed, parsed}
		return set, nil
	}

	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded regular font: %w", err)
	}
	heavy, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded bold font: %w", err)
	}
	set.fonts = [2]*opentype.Font{reg, heavy}
	return set, nil
}

func (s *fontSet) face(w weight, size float64) (font.Face, error) {
	if size < 1 {
		size = 1
	}
	key := faceKey{weight: w, size: size}

	s.mu.Lock()
	defer s.mu.Unlock()
	if face, ok := s.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(s.fonts[w], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	s.faces[key] = face
	return face, nil
}

func (s *fontSet) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for key, face := range s.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.faces, key)
	}
	return errors.Join(errs...)
}
