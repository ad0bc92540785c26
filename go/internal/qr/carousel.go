package qr

import (
	"time"

	"github.com/mcdev12/gdsync/go/internal/models"
)

// Carousel is linear navigation over a venue's historical codes, ordered by
// creation time as the server returns them. The initial position is the
// first code that is still usable; when none is, it falls back to the
// first entry.
type Carousel struct {
	codes []models.QRCode
	index int
}

func NewCarousel(codes []models.QRCode, now time.Time) (*Carousel, error) {
	if len(codes) == 0 {
		return nil, ErrNoHistory
	}

	index := 0
	for i := range codes {
		if codes[i].Usable(now) {
			index = i
			break
		}
	}
	return &Carousel{codes: codes, index: index}, nil
}

func (c *Carousel) Current() models.QRCode {
	return c.codes[c.index]
}

func (c *Carousel) Index() int {
	return c.index
}

func (c *Carousel) Len() int {
	return len(c.codes)
}

// Next advances one entry; reports whether the position moved.
func (c *Carousel) Next() bool {
	if c.index >= len(c.codes)-1 {
		return false
	}
	c.index++
	return true
}

// Prev steps back one entry; reports whether the position moved.
func (c *Carousel) Prev() bool {
	if c.index <= 0 {
		return false
	}
	c.index--
	return true
}

// GoTo jumps to an index; out-of-bounds targets are rejected.
func (c *Carousel) GoTo(i int) bool {
	if i < 0 || i >= len(c.codes) {
		return false
	}
	c.index = i
	return true
}
