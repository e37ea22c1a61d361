package e2e

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed testdata/sequences/*.yaml
var sequencesFS embed.FS

// poses maps the pose names used in sequence files to landmark fixtures.
var poses = map[string]func() detector.HandLandmarks{
	"open_palm":    detector.OpenPalmLandmarks,
	"fist":         detector.FistLandmarks,
	"point":        detector.PointLandmarks,
	"thumbs_up":    detector.ThumbsUpLandmarks,
	"index_pinch":  detector.IndexPinchLandmarks,
	"middle_pinch": detector.MiddlePinchLandmarks,
	"ring_pinch":   detector.RingPinchLandmarks,
}

// Step is one or more identical frames. Pose "none" is a frame without a hand.
// DX and DY shift the whole hand; Jab moves the index tip along z.
type Step struct {
	Pose   string  `yaml:"pose"`
	Repeat int     `yaml:"repeat"`
	DX     float64 `yaml:"dx"`
	DY     float64 `yaml:"dy"`
	Jab    float64 `yaml:"jab"`
}

// Expected is a journaled gesture and the action it produced.
type Expected struct {
	Gesture string `yaml:"gesture"`
	Action  string `yaml:"action"`
}

// Sequence is a scripted run of hand poses and the non-move actions it must produce.
type Sequence struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []Step     `yaml:"steps"`
	Expect      []Expected `yaml:"expect"`
}

// loadSequences loads every sequence file.
func loadSequences() ([]*Sequence, error) {
	entries, err := sequencesFS.ReadDir("testdata/sequences")
	if err != nil {
		return nil, err
	}

	var seqs []*Sequence
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		seq, err := loadSequence(strings.TrimSuffix(entry.Name(), ".yaml"))
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

// loadSequence loads testdata/sequences/<name>.yaml.
func loadSequence(name string) (*Sequence, error) {
	data, err := sequencesFS.ReadFile(path.Join("testdata/sequences", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", name, err)
	}

	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("decode sequence %s: %w", name, err)
	}
	if seq.Name == "" {
		seq.Name = name
	}
	return &seq, nil
}

// Frames expands the steps into per-frame detector output.
func (s *Sequence) Frames() ([][]detector.HandLandmarks, error) {
	var frames [][]detector.HandLandmarks
	for i, step := range s.Steps {
		var hands []detector.HandLandmarks
		if step.Pose != "none" {
			pose, ok := poses[step.Pose]
			if !ok {
				return nil, fmt.Errorf("sequence %s step %d: unknown pose %q", s.Name, i, step.Pose)
			}
			h := pose().Translated(step.DX, step.DY)
			h.Points[detector.IndexTip].Z += step.Jab
			hands = []detector.HandLandmarks{h}
		}

		n := max(step.Repeat, 1)
		for range n {
			frames = append(frames, hands)
		}
	}
	return frames, nil
}
