package eval

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Binary weights file constants
const (
	WeightsMagic   = "SWPW" // Magic bytes at the start of a weights file
	WeightsVersion = 1      // Expected version
)

// ErrBadWeights is returned when a weights file is malformed
var ErrBadWeights = errors.New("bad weights file")

// Weights holds the per-phase linear model and the ProbCut error model
type Weights struct {
	Phases [NumPhases][NumFeatures]float64
	Sigma  SigmaModel
}

// DefaultWeights returns the built-in hand-tuned weights, in disc units.
func DefaultWeights() *Weights {
	w := &Weights{Sigma: DefaultSigma()}
	columns := [NumFeatures][NumPhases]float64{
		FeatureBias:              {0, 0, 0, 0},
		FeatureMobility:          {1.0, 0.8, 0.6, 0.3},
		FeaturePotentialMobility: {0.3, 0.25, 0.2, 0.1},
		FeatureCorners:           {4.0, 4.0, 3.5, 3.0},
		FeatureXSquares:          {-2.5, -2.0, -1.5, -0.5},
		FeatureCSquares:          {-1.0, -0.8, -0.5, -0.2},
		FeatureStable:            {1.0, 1.0, 1.2, 1.5},
		FeatureFrontier:          {-0.4, -0.35, -0.3, -0.1},
		FeatureDiscs:             {-0.1, 0, 0.2, 0.6},
		FeatureSquares:           {0.05, 0.05, 0.03, 0.01},
		FeatureParity:            {0, 0.5, 1.0, 2.0},
	}
	for f, col := range columns {
		for ph, v := range col {
			w.Phases[ph][f] = v
		}
	}
	return w
}

type header struct {
	Magic    [4]byte
	Version  uint32
	Phases   uint32
	Features uint32
}

// LoadWeights loads weights from a binary weights file
func LoadWeights(path string) (*Weights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening weights file: %w", err)
	}
	defer f.Close()

	return ReadWeights(bufio.NewReader(f))
}

// ReadWeights loads weights from a reader
func ReadWeights(r io.Reader) (*Weights, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrBadWeights, err)
	}
	if string(h.Magic[:]) != WeightsMagic {
		return nil, fmt.Errorf("%w: invalid magic %q (expected %q)", ErrBadWeights, h.Magic[:], WeightsMagic)
	}
	if h.Version != WeightsVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadWeights, h.Version)
	}
	if h.Phases != NumPhases || h.Features != NumFeatures {
		return nil, fmt.Errorf("%w: shape %dx%d, want %dx%d", ErrBadWeights, h.Phases, h.Features, NumPhases, NumFeatures)
	}

	w := &Weights{}
	if err := binary.Read(r, binary.LittleEndian, &w.Phases); err != nil {
		return nil, fmt.Errorf("%w: reading phase weights: %v", ErrBadWeights, err)
	}
	var sigma [6]float64
	if err := binary.Read(r, binary.LittleEndian, &sigma); err != nil {
		return nil, fmt.Errorf("%w: reading sigma model: %v", ErrBadWeights, err)
	}
	w.Sigma = sigmaFromArray(sigma)
	return w, nil
}

// SaveWeights writes weights to path in the binary format read by LoadWeights
func SaveWeights(path string, w *Weights) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating weights file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WriteWeights(bw, w); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing weights file: %w", err)
	}
	return f.Close()
}

// WriteWeights encodes weights to a writer
func WriteWeights(wr io.Writer, w *Weights) error {
	h := header{Version: WeightsVersion, Phases: NumPhases, Features: NumFeatures}
	copy(h.Magic[:], WeightsMagic)
	for _, v := range []any{h, w.Phases, w.Sigma.array()} {
		if err := binary.Write(wr, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("writing weights: %w", err)
		}
	}
	return nil
}

// String returns a readable dump of the weights
func (w *Weights) String() string {
	var sb strings.Builder
	for ph := 0; ph < NumPhases; ph++ {
		fmt.Fprintf(&sb, "phase %d:", ph)
		for f, name := range FeatureNames {
			fmt.Fprintf(&sb, " %s=%.3f", name, w.Phases[ph][f])
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "sigma: %+v\n", w.Sigma)
	return sb.String()
}
