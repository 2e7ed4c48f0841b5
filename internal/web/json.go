package web

import (
	"encoding/json"

	"github.com/sweeney/motodash/internal/acquisition"
)

// HistoryJSON is the JSON envelope of the recorded track.
type HistoryJSON struct {
	History HistoryInner `json:"history"`
}

// HistoryInner contains the samples and buffer usage.
type HistoryInner struct {
	Len     int                  `json:"len"`
	Cap     int                  `json:"cap"`
	Dropped int                  `json:"dropped"`
	Samples []acquisition.Sample `json:"samples"`
}

func formatHistory(h HistorySource) []byte {
	samples := h.Samples()
	if samples == nil {
		samples = []acquisition.Sample{}
	}
	data, _ := json.Marshal(HistoryJSON{History: HistoryInner{
		Len:     h.Len(),
		Cap:     h.Cap(),
		Dropped: h.Dropped(),
		Samples: samples,
	}})
	return data
}
