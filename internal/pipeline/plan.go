package pipeline

import (
	"vidconv/internal/encoder"
	"vidconv/internal/intake"
	"vidconv/internal/model"
	"vidconv/internal/util/media"
)

// Step is the fully resolved work for one input file.
type Step struct {
	Index      int
	Source     string   // original file name
	InputName  string   // staged input name in the engine scratch space
	OutputName string   // staged output name in the engine scratch space
	ResultName string   // download name of the converted file
	Args       []string // engine arguments
}

// Plan resolves the steps of a batch without touching the engine. Scratch
// names are keyed by index so sequential files never collide.
func Plan(files []intake.File, s model.Settings) []Step {
	steps := make([]Step, len(files))
	for i, f := range files {
		in := media.InputStagingName(i, f.Name)
		out := media.OutputStagingName(i, s.Format)
		steps[i] = Step{
			Index:      i,
			Source:     f.Name,
			InputName:  in,
			OutputName: out,
			ResultName: media.OutputName(f.Name, s.Format),
			Args:       encoder.BuildArgs(in, out, s),
		}
	}
	return steps
}
