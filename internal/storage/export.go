package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/spheresim/internal/dynamo"
)

type ExportBody struct {
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	Radius   float64    `json:"radius"`
}

type ExportFrame struct {
	Tick          int          `json:"tick"`
	KineticEnergy float64      `json:"kinetic_energy"`
	Bodies        []ExportBody `json:"bodies"`
}

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

func NewExportData(meta RunMetadata, snaps []dynamo.Snapshot) ExportData {
	data := ExportData{
		Run:    meta,
		Frames: make([]ExportFrame, len(snaps)),
	}
	for i, s := range snaps {
		frame := ExportFrame{
			Tick:          s.Tick,
			KineticEnergy: s.KineticEnergy(),
			Bodies:        make([]ExportBody, len(s.Bodies)),
		}
		for j, b := range s.Bodies {
			frame.Bodies[j] = ExportBody{Position: b.Position, Velocity: b.Velocity, Radius: b.Radius}
		}
		data.Frames[i] = frame
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, snaps []dynamo.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, snaps))
}

// EnergySeries returns the total kinetic energy of each snapshot.
func EnergySeries(snaps []dynamo.Snapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.KineticEnergy()
	}
	return out
}

// CoordinateSeries returns one coordinate (0..2) of one body over time.
func CoordinateSeries(snaps []dynamo.Snapshot, body, axis int) []float64 {
	out := make([]float64, 0, len(snaps))
	for _, s := range snaps {
		if body < len(s.Bodies) {
			out = append(out, s.Bodies[body].Position[axis])
		}
	}
	return out
}
