package led

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	screen "periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// Strip drives an addressable NRZ LED strip over SPI. When no SPI port is
// available it falls back to an ANSI console preview so the rest of the
// system keeps working on a dev machine.
type Strip struct {
	drawer display.Drawer
	port   spi.PortCloser // nil on the console fallback
	count  int
	order  [3]byte
}

// NewStrip opens the first SPI port and prepares an NRZ encoder for count
// pixels. colorOrder is the wire channel order, e.g. "GRB"; speedHz is the
// NRZ bit rate (2.4-3.2 MHz works for WS2812-class strips).
func NewStrip(count int, colorOrder string, speedHz int) (*Strip, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = 2400000
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	s := &Strip{count: count, order: parseOrder(colorOrder)}

	port, err := spireg.Open("")
	if err != nil {
		log.Warn().Err(err).Msg("no SPI port found, using console preview")
		s.drawer = screen.New(&screen.Opts{X: count})
		return s, nil
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      physic.Frequency(speedHz) * physic.Hertz,
	})
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("nrzled init: %w", err)
	}
	s.drawer = dev
	s.port = port
	return s, nil
}

// Write pushes an RGB frame to the strip. len(rgb) must be 3*count.
func (s *Strip) Write(rgb []byte) error {
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	img := image.NewNRGBA(image.Rect(0, 0, s.count, 1))
	for i := 0; i < s.count; i++ {
		px := [3]byte{rgb[i*3+0], rgb[i*3+1], rgb[i*3+2]}
		img.SetNRGBA(i, 0, color.NRGBA{
			R: px[s.order[0]],
			G: px[s.order[1]],
			B: px[s.order[2]],
			A: 255,
		})
	}
	if err := s.drawer.Draw(s.drawer.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("strip draw: %w", err)
	}
	return nil
}

func (s *Strip) Close() error {
	if err := s.drawer.Halt(); err != nil {
		return err
	}
	if s.port != nil {
		return s.port.Close()
	}
	return nil
}

// parseOrder maps a wire order string like "GRB" to source channel indices.
func parseOrder(order string) [3]byte {
	if len(order) != 3 {
		return [3]byte{0, 1, 2} // RGB
	}
	var out [3]byte
	for i := 0; i < 3; i++ {
		switch order[i] {
		case 'R', 'r':
			out[i] = 0
		case 'G', 'g':
			out[i] = 1
		case 'B', 'b':
			out[i] = 2
		default:
			out[i] = byte(i)
		}
	}
	return out
}
