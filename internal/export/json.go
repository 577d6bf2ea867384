package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/swarmfield/internal/config"
	"github.com/san-kum/swarmfield/internal/sim"
)

// Summary is the JSON report of a headless run.
type Summary struct {
	Seed          int64              `json:"seed"`
	Particles     int                `json:"particles"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	Time          float64            `json:"time"`
	ElapsedMillis int64              `json:"elapsed_ms"`
	TicksPerSec   float64            `json:"ticks_per_sec"`
	Collisions    int                `json:"collisions"`
	Unresolved    int                `json:"unresolved"`
	Metrics       map[string]float64 `json:"metrics"`
	Error         string             `json:"error,omitempty"`
}

func NewSummary(cfg *config.Config, result *sim.Result, runErr error) Summary {
	s := Summary{
		Seed:          result.Seed,
		Particles:     cfg.Swarm.Particles,
		Dt:            cfg.Run.Dt,
		Steps:         result.Steps,
		Time:          result.Time,
		ElapsedMillis: result.Elapsed.Milliseconds(),
		TicksPerSec:   result.TicksPerSecond(),
		Collisions:    result.Collisions,
		Unresolved:    result.Unresolved,
		Metrics:       result.Metrics,
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

// WriteJSON encodes the summary with two-space indentation.
func WriteJSON(w io.Writer, s Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}
