package settings

import (
	"fmt"
	"log"
)

// Store owns the live settings record and writes it through to a blob.
// It belongs to the main loop.
type Store struct {
	blob BlobStore
	rec  Record
}

// NewStore creates a store holding the defaults. Call Load to read the blob.
func NewStore(blob BlobStore) *Store {
	return &Store{blob: blob, rec: Defaults()}
}

// Load reads the persisted record. A blob of the wrong size is treated as
// corrupt: the defaults are kept and written back immediately.
func (s *Store) Load() error {
	b, err := s.blob.ReadBlob()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	rec, err := Decode(b)
	if err != nil {
		log.Printf("settings: stored record is %d bytes, expected %d; resetting to defaults", len(b), RecordSize)
		s.rec = Defaults()
		return s.Save()
	}
	rec.Clamp()
	s.rec = rec
	return nil
}

// Save persists the current record.
func (s *Store) Save() error {
	if err := s.blob.WriteBlob(s.rec.Encode()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Record returns a copy of the current settings.
func (s *Store) Record() Record {
	return s.rec
}

// Int returns the value of f.
func (s *Store) Int(f Field) int {
	return s.rec.Int(f)
}

// Step changes f by one step without persisting.
func (s *Store) Step(f Field, dir int) {
	s.rec.Step(f, dir)
}

// ToggleLEDs flips the LED strip on or off and persists.
func (s *Store) ToggleLEDs() (bool, error) {
	s.rec.LEDEnabled = !s.rec.LEDEnabled
	return s.rec.LEDEnabled, s.Save()
}

// ToggleWifi flips the Wi-Fi setting and persists.
func (s *Store) ToggleWifi() (bool, error) {
	s.rec.WifiEnabled = !s.rec.WifiEnabled
	return s.rec.WifiEnabled, s.Save()
}

// BlobSize returns the size of the persisted record in bytes.
func (s *Store) BlobSize() int {
	return RecordSize
}
