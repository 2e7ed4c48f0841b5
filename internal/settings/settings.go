// Package settings holds the persisted dashboard preferences and their
// fixed-layout binary encoding.
package settings

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SoftwareVersion is shown on the memory and splash screens.
const SoftwareVersion = "1.01.A"

// NumLogos is the number of selectable brand logos.
const NumLogos = 6

// Record is the flat settings record.
type Record struct {
	MaxRPM        int  `json:"max_rpm"`
	LEDEnabled    bool `json:"led_enabled"`
	LEDBrightness int  `json:"led_brightness"`
	WifiEnabled   bool `json:"wifi_enabled"`
	BrandLogo     int  `json:"brand_logo"`
	DisplayStyle  int  `json:"display_style"`
}

// Defaults returns the factory settings.
func Defaults() Record {
	return Record{
		MaxRPM:        8000,
		LEDEnabled:    false,
		LEDBrightness: 3,
		WifiEnabled:   false,
		BrandLogo:     0,
		DisplayStyle:  0,
	}
}

// Field names an integer setting that can be stepped from an edit screen.
type Field int

const (
	FieldMaxRPM Field = iota
	FieldLEDBrightness
	FieldBrandLogo
	FieldDisplayStyle
)

func (f Field) String() string {
	switch f {
	case FieldMaxRPM:
		return "max_rpm"
	case FieldLEDBrightness:
		return "led_brightness"
	case FieldBrandLogo:
		return "brand_logo"
	case FieldDisplayStyle:
		return "display_style"
	}
	return "unknown"
}

// Limits is the inclusive range and step of an integer field.
type Limits struct {
	Min, Max, Step int
}

// Limits returns the range and step for f.
func (f Field) Limits() Limits {
	switch f {
	case FieldMaxRPM:
		return Limits{Min: 1000, Max: 15000, Step: 1000}
	case FieldLEDBrightness:
		return Limits{Min: 3, Max: 50, Step: 5}
	case FieldBrandLogo:
		return Limits{Min: 0, Max: NumLogos - 1, Step: 1}
	case FieldDisplayStyle:
		return Limits{Min: 0, Max: 1, Step: 1}
	}
	return Limits{}
}

func (l Limits) clamp(v int) int {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Int returns the value of f.
func (r Record) Int(f Field) int {
	switch f {
	case FieldMaxRPM:
		return r.MaxRPM
	case FieldLEDBrightness:
		return r.LEDBrightness
	case FieldBrandLogo:
		return r.BrandLogo
	case FieldDisplayStyle:
		return r.DisplayStyle
	}
	return 0
}

// SetInt stores v into f, clamped to the field's range.
func (r *Record) SetInt(f Field, v int) {
	v = f.Limits().clamp(v)
	switch f {
	case FieldMaxRPM:
		r.MaxRPM = v
	case FieldLEDBrightness:
		r.LEDBrightness = v
	case FieldBrandLogo:
		r.BrandLogo = v
	case FieldDisplayStyle:
		r.DisplayStyle = v
	}
}

// Step moves f by one step in direction dir (+1 or -1).
func (r *Record) Step(f Field, dir int) {
	r.SetInt(f, r.Int(f)+dir*f.Limits().Step)
}

// Clamp forces every integer field into range.
func (r *Record) Clamp() {
	for _, f := range []Field{FieldMaxRPM, FieldLEDBrightness, FieldBrandLogo, FieldDisplayStyle} {
		r.SetInt(f, r.Int(f))
	}
}

// wireRecord is the on-flash layout, little endian, no padding.
type wireRecord struct {
	MaxRPM        int32
	LEDEnabled    uint8
	LEDBrightness int32
	WifiEnabled   uint8
	DisplayStyle  int32
	BrandLogo     int32
}

// RecordSize is the encoded size of a Record in bytes.
var RecordSize = binary.Size(wireRecord{})

// Encode returns the fixed-layout encoding of r.
func (r Record) Encode() []byte {
	w := wireRecord{
		MaxRPM:        int32(r.MaxRPM),
		LEDEnabled:    boolByte(r.LEDEnabled),
		LEDBrightness: int32(r.LEDBrightness),
		WifiEnabled:   boolByte(r.WifiEnabled),
		DisplayStyle:  int32(r.DisplayStyle),
		BrandLogo:     int32(r.BrandLogo),
	}
	var buf bytes.Buffer
	buf.Grow(RecordSize)
	// Writes to a bytes.Buffer of fixed-size fields cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, &w)
	return buf.Bytes()
}

// Decode parses a blob produced by Encode.
func Decode(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, fmt.Errorf("decode settings: size %d, want %d", len(b), RecordSize)
	}
	var w wireRecord
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &w); err != nil {
		return Record{}, fmt.Errorf("decode settings: %w", err)
	}
	return Record{
		MaxRPM:        int(w.MaxRPM),
		LEDEnabled:    w.LEDEnabled != 0,
		LEDBrightness: int(w.LEDBrightness),
		WifiEnabled:   w.WifiEnabled != 0,
		DisplayStyle:  int(w.DisplayStyle),
		BrandLogo:     int(w.BrandLogo),
	}, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// FormatSize renders a byte count as B, KB, MB or GB.
func FormatSize(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%dB", n)
	case n < unit*unit:
		return fmt.Sprintf("%.2fKB", float64(n)/unit)
	case n < unit*unit*unit:
		return fmt.Sprintf("%.2fMB", float64(n)/(unit*unit))
	}
	return fmt.Sprintf("%.2fGB", float64(n)/(unit*unit*unit))
}
