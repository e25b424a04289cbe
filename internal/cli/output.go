package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/rowstream/internal/core"
)

// encoder writes one JSON value per line.
type encoder struct {
	enc *json.Encoder
}

func newEncoder(w io.Writer) *encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &encoder{enc: enc}
}

func (e *encoder) write(v any) error {
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// batchLine is the output of the batch command.
type batchLine struct {
	Batch   int           `json:"batch"`
	Records []core.Record `json:"records"`
}

// pageLine is the output of the paginate command.
type pageLine struct {
	Offset  int           `json:"offset"`
	Size    int           `json:"size"`
	Records []core.Record `json:"records"`
}

type averageLine struct {
	Field   string     `json:"field"`
	Average core.Float `json:"average"`
}

type summaryLine struct {
	Field string     `json:"field"`
	Count int64      `json:"count"`
	Sum   core.Float `json:"sum"`
	Mean  core.Float `json:"mean"`
	Min   core.Float `json:"min"`
	Max   core.Float `json:"max"`
}

func newSummaryLine(field string, s core.Summary) summaryLine {
	return summaryLine{
		Field: field,
		Count: s.Count,
		Sum:   core.Float(s.Sum),
		Mean:  core.Float(s.Mean),
		Min:   core.Float(s.Min),
		Max:   core.Float(s.Max),
	}
}
