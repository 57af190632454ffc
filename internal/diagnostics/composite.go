package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SGullin/arpa/internal/header"
)

// composite draws the overview plot for a raw file. The layout
// depends on which dimensions the file actually resolves.
func (r *Runner) composite(file string) (*Output, error) {
	r.Logger.Info("creating composite plot", "file", file)

	h, err := header.Read(r.PSRChive, file)
	if err != nil {
		return nil, err
	}
	if h.SubintCount*h.ChannelCount == 0 {
		return nil, &BadPlotFileError{Path: file}
	}

	out := filepath.Join(r.Config.Paths.TempDir, "tmp.png")
	device := out + "/PNG"
	info := fmt.Sprintf(
		"above:l='%s\n"+
			"%s    %s (%s)\n"+
			"Length=%.1f s    BW=%.1f MHz\n"+
			"N\\dbin\\u=$nbin    N\\dchan\\u=$nchan    N\\dsub\\u=$nsubint',"+
			"above:off=3.5",
		filepath.Base(file),
		h.Telescope, h.Receiver, h.Backend,
		h.Length, h.Bandwidth,
	)

	switch {
	case h.SubintCount > 1 && h.ChannelCount > 1:
		err = r.plotAll(file, device, info)
	case h.SubintCount > 1:
		err = r.plotNoFreq(file, device, info)
	case h.ChannelCount > 1:
		err = r.plotNoTime(file, device, info)
	default:
		err = r.plotProfileOnly(file, device, info)
	}
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(out); err != nil {
		return nil, fmt.Errorf("plotter produced no file at %s: %w", out, err)
	}
	return &Output{PlotPath: out}, nil
}

// plotAll draws flux, frequency and time panels.
func (r *Runner) plotAll(path, device, info string) error {
	_, err := r.PSRChive.Run("psrplot",
		"-O", "-j", "D",
		"-c", "above:c=,x:range=0:2",
		path,
		"-D", device,
		"-p", "flux",
		"-c",
		":0:x:view=0.575:0.95,",
		"y:view=0.7:0.9,",
		"subint=I,",
		"chan=I,",
		"pol=I,",
		"x:opt=BCTS,",
		"x:lab=,",
		"below:l=",
		"-p", "freq",
		"-c",
		":1:x:view=0.075:0.45,",
		"y:view=0.15:0.7,",
		"subint=I,",
		"pol=I,",
		info,
		"cmap:map=plasma",
		"-p", "time",
		"-c",
		":2:x:view=0.575:0.95,",
		"y:view=0.15:0.7,",
		"chan=I,",
		"pol=I,",
		"cmap:map=plasma",
	)
	return err
}

// plotNoFreq draws flux and time panels for single-channel data.
func (r *Runner) plotNoFreq(path, device, info string) error {
	_, err := r.PSRChive.Run("psrplot",
		"-O", "-j", "D",
		"-c", "above:c=,x:range=0:2",
		path,
		"-D", device,
		"-p", "flux",
		"-c",
		":0:x:view=0.075:0.95,",
		"y:view=0.5:0.7,",
		"subint=I,",
		"chan=I,",
		"pol=I,",
		"x:opt=BCTS,",
		"x:lab=,",
		"below:l=,",
		info,
		"-p", "time",
		"-c",
		":1:x:view=0.075:0.95,",
		"y:view=0.15:0.5,",
		"chan=I,",
		"pol=I,",
		"cmap:map=plasma",
	)
	return err
}

// plotNoTime draws flux and frequency panels for single-subint data.
func (r *Runner) plotNoTime(path, device, info string) error {
	out, err := r.PSRChive.Run("psrplot",
		"-O", "-j", "D",
		"-c", "above:c=,x:range=0:2",
		path,
		"-D", device,
		"-p", "flux",
		"-c",
		":0:x:view=0.075:0.95,"+
			"y:view=0.5:0.7,"+
			"subint=I,"+
			"chan=I,"+
			"pol=I,"+
			"x:opt=BCTS,"+
			"x:lab=,"+
			"below:l=,"+info,
		"-p", "freq",
		"-c",
		":1:x:view=0.075:0.95,"+
			"y:view=0.15:0.5,"+
			"subint=I,"+
			"pol=I,"+
			"cmap:map=plasma",
	)
	if err != nil {
		return err
	}
	if out != "" {
		r.Logger.Debug("plotter response", "output", out)
	}
	return nil
}

// plotProfileOnly draws the single flux panel.
func (r *Runner) plotProfileOnly(path, device, info string) error {
	_, err := r.PSRChive.Run("psrplot",
		"-O", "-j", "D",
		"-c", "above:c=,x:range=0:2",
		path,
		"-D", device,
		"-p", "flux",
		"-c",
		":0:x:view=0.075:0.95,",
		"y:view=0.15:0.7,",
		"subint=I,",
		"chan=I,",
		"pol=I,",
		"below:l=,",
		info,
	)
	return err
}
