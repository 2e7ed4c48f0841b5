package display

import (
	"fmt"
	"image"
	"image/color"
	"time"

	conndisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// OLEDConfig names the SPI port and control lines of the panel.
type OLEDConfig struct {
	SPIPort  string // "" selects the first port
	DCPin    string
	ResetPin string // "" when reset is tied high
}

// OLED is the SSD1306/SSD1309 128x64 panel on SPI.
type OLED struct {
	port spi.PortCloser
	dev  *ssd1306.Dev
}

var _ conndisplay.Drawer = (*OLED)(nil)

// OpenOLED initialises the host drivers, pulses reset and opens the panel.
func OpenOLED(cfg OLEDConfig) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	dc := gpioreg.ByName(cfg.DCPin)
	if dc == nil {
		return nil, fmt.Errorf("open oled: unknown dc pin %q", cfg.DCPin)
	}
	if cfg.ResetPin != "" {
		rst := gpioreg.ByName(cfg.ResetPin)
		if rst == nil {
			return nil, fmt.Errorf("open oled: unknown reset pin %q", cfg.ResetPin)
		}
		if err := pulseReset(rst); err != nil {
			return nil, err
		}
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPIPort, err)
	}

	opts := ssd1306.DefaultOpts
	opts.W, opts.H = Width, Height
	dev, err := ssd1306.NewSPI(port, dc, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}
	return &OLED{port: port, dev: dev}, nil
}

func pulseReset(p gpio.PinOut) error {
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("reset oled: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := p.Out(gpio.High); err != nil {
		return fmt.Errorf("reset oled: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (o *OLED) String() string          { return o.dev.String() }
func (o *OLED) ColorModel() color.Model { return o.dev.ColorModel() }
func (o *OLED) Bounds() image.Rectangle { return o.dev.Bounds() }
func (o *OLED) Halt() error             { return o.dev.Halt() }

// Draw sends the changed part of src to the panel.
func (o *OLED) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	return o.dev.Draw(r, src, sp)
}

// Close blanks the panel and releases the SPI port.
func (o *OLED) Close() error {
	herr := o.dev.Halt()
	if err := o.port.Close(); err != nil {
		return fmt.Errorf("close spi: %w", err)
	}
	if herr != nil {
		return fmt.Errorf("halt oled: %w", herr)
	}
	return nil
}
