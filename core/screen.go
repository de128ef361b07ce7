package core

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Badge e-paper size in landscape orientation
const (
	ScreenWidth  = 296
	ScreenHeight = 128
)

// Centre lines of the A, B and C buttons along the bottom edge
var buttonCentres = [3]int{41, 147, 253}

var buttonLabels = [3]string{"Duty", "+1K", "+10K"}

// Screen is a 1-bit frame buffer holding the badge layout. Set bits are ink
// (black). It implements draw.Image so fonts can render into it.
type Screen struct {
	bits [ScreenWidth * ScreenHeight / 8]byte
	face *basicfont.Face
	buf  []byte
}

func NewScreen() *Screen {
	return &Screen{
		face: basicfont.Face7x13,
		buf:  make([]byte, 0, 24),
	}
}

func (s *Screen) ColorModel() color.Model { return color.GrayModel }

func (s *Screen) Bounds() image.Rectangle {
	return image.Rect(0, 0, ScreenWidth, ScreenHeight)
}

func (s *Screen) At(x, y int) color.Color {
	if s.Ink(x, y) {
		return color.Gray{}
	}
	return color.Gray{Y: 0xff}
}

func (s *Screen) Set(x, y int, c color.Color) {
	s.setInk(x, y, isInk(c))
}

// Ink reports whether the pixel at x, y is black. Pixels off screen are not.
func (s *Screen) Ink(x, y int) bool {
	if x < 0 || y < 0 || x >= ScreenWidth || y >= ScreenHeight {
		return false
	}
	i := y*ScreenWidth + x
	return s.bits[i>>3]&(1<<(i&7)) != 0
}

func (s *Screen) setInk(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= ScreenWidth || y >= ScreenHeight {
		return
	}
	i := y*ScreenWidth + x
	if ink {
		s.bits[i>>3] |= 1 << (i & 7)
	} else {
		s.bits[i>>3] &^= 1 << (i & 7)
	}
}

func isInk(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 0x80
}

// Clear blanks the buffer to white
func (s *Screen) Clear() {
	clear(s.bits[:])
}

// DrawStatus renders the status page: a black title bar with the battery
// gauge, frequency and duty, and the labels of the three lower buttons with
// the selected frequency step underlined.
func (s *Screen) DrawStatus(st Status) {
	s.Clear()

	s.fillRect(0, 0, ScreenWidth, 16, true)
	s.text(3, 2, 1, []byte("sqwave"), false)
	if !st.Running {
		s.text(120, 2, 1, []byte("STOPPED"), false)
	}
	s.drawBattery(st.Battery, ScreenWidth-25, 3)

	s.text(20, 40, 1, []byte("Frequency:"), true)
	s.buf = AppendFrequency(s.buf[:0], st.FrequencyHz)
	s.text(100, 34, 2, s.buf, true)

	s.text(20, 72, 1, []byte("Duty:"), true)
	s.buf = AppendDuty(s.buf[:0], st.Duty)
	s.text(100, 66, 2, s.buf, true)

	for i, label := range buttonLabels {
		w := len(label) * s.face.Advance
		x := buttonCentres[i] - w/2
		s.text(x, 104, 1, []byte(label), true)
		if (i == 1 && st.Increment == IncrementFine) || (i == 2 && st.Increment == IncrementCoarse) {
			s.fillRect(x, 119, w, 2, true)
		}
	}
}

// drawBattery draws the gauge at x, y on the black title bar: a white
// outline with one bar per level, or a struck-out cell when the level is
// empty or unknown.
func (s *Screen) drawBattery(level, x, y int) {
	s.fillRect(x, y, 19, 10, false)
	s.fillRect(x+19, y+3, 2, 4, false)
	s.fillRect(x+1, y+1, 17, 8, true)
	if level < 1 {
		s.line(x+3, y, x+13, y+10, true)
		s.line(x+4, y, x+14, y+10, true)
		s.line(x+4, y-1, x+16, y+11, false)
		s.line(x+5, y-1, x+17, y+11, false)
		return
	}
	for i := 0; i < level && i < BatteryLevels; i++ {
		s.fillRect(x+2+i*4, y+2, 3, 6, false)
	}
}

func (s *Screen) fillRect(x, y, w, h int, ink bool) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			s.setInk(px, py, ink)
		}
	}
}

func (s *Screen) line(x0, y0, x1, y1 int, ink bool) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y0-y1, 1
	if dy > 0 {
		dy, sy = -dy, -1
	}
	e := dx + dy
	for {
		s.setInk(x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			return
		}
		if 2*e >= dy {
			e += dy
			x0 += sx
		}
		if 2*e <= dx {
			e += dx
			y0 += sy
		}
	}
}

// text draws str with its top left corner at x, y, each font pixel scaled
// to a k by k block
func (s *Screen) text(x, y, k int, str []byte, ink bool) {
	src := image.White
	if ink {
		src = image.Black
	}
	d := font.Drawer{
		Dst:  scaledView{s: s, x0: x, y0: y, k: k},
		Src:  src,
		Face: s.face,
		Dot:  fixed.P(0, s.face.Ascent),
	}
	d.DrawBytes(str)
}

// scaledView maps font coordinates onto the screen with an offset and an
// integer zoom
type scaledView struct {
	s      *Screen
	x0, y0 int
	k      int
}

func (v scaledView) ColorModel() color.Model { return color.GrayModel }

func (v scaledView) Bounds() image.Rectangle {
	return image.Rect(0, 0, (ScreenWidth-v.x0)/v.k, (ScreenHeight-v.y0)/v.k)
}

func (v scaledView) At(x, y int) color.Color {
	return v.s.At(v.x0+x*v.k, v.y0+y*v.k)
}

func (v scaledView) Set(x, y int, c color.Color) {
	ink := isInk(c)
	for dy := 0; dy < v.k; dy++ {
		for dx := 0; dx < v.k; dx++ {
			v.s.setInk(v.x0+x*v.k+dx, v.y0+y*v.k+dy, ink)
		}
	}
}
