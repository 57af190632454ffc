// Package header reads raw-file metadata out of psrchive archives.
package header

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SGullin/arpa/internal/parse"
	"github.com/SGullin/arpa/internal/tools"
)

// headerKeys is the full key set read for a raw file, in the order the
// RawFileHeader fields are filled.
var headerKeys = []string{
	"nbin", "nchan", "npol", "nsub",
	"type", "telescop", "name", "dec", "ra",
	"freq", "bw", "dm", "rm",
	"scale", "state", "length",
	"rcvr", "basis", "backend", "mjd",
}

// KeyCountError reports a key/value count mismatch in tool output.
type KeyCountError struct {
	Requested int
	Received  int
}

func (e *KeyCountError) Error() string {
	return fmt.Sprintf(
		"requested %d header values but received %d",
		e.Requested, e.Received,
	)
}

// RawFileHeader holds the observation metadata of a raw file.
type RawFileHeader struct {
	Filename string

	BinCount          int
	ChannelCount      int
	PolarizationCount int
	SubintCount       int

	ObjectType string
	Telescope  string
	PsrName    string
	Dec        string
	RA         string

	Frequency         float64
	Bandwidth         float64
	DispersionMeasure float64
	RotationMeasure   float64

	Scale  string
	State  string
	Length float64

	Receiver string
	Basis    string
	Backend  string
	Date     float64
}

// Items queries the metadata tool for the given keys on one file. The
// returned slice starts with the file name and continues with one
// value per key, in order.
func Items(ps *tools.PSRChive, path string, keys []string) ([]string, error) {
	out, err := ps.Run("vap", "-n", "-c", strings.Join(keys, ","), path)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	values := strings.Fields(out)
	if len(values) != len(keys)+1 {
		return nil, &KeyCountError{
			Requested: len(keys) + 1,
			Received:  len(values),
		}
	}
	return values, nil
}

// Read loads the full header of one raw file.
func Read(ps *tools.PSRChive, path string) (*RawFileHeader, error) {
	values, err := Items(ps, path, headerKeys)
	if err != nil {
		return nil, err
	}

	h := &RawFileHeader{Filename: values[0]}
	v := values[1:]

	if h.BinCount, err = parse.Int(v[0]); err != nil {
		return nil, err
	}
	if h.ChannelCount, err = parse.Int(v[1]); err != nil {
		return nil, err
	}
	if h.PolarizationCount, err = parse.Int(v[2]); err != nil {
		return nil, err
	}
	if h.SubintCount, err = parse.Int(v[3]); err != nil {
		return nil, err
	}

	h.ObjectType = v[4]
	h.Telescope = v[5]
	h.PsrName = v[6]
	h.Dec = v[7]
	h.RA = v[8]

	if h.Frequency, err = parse.Float(v[9]); err != nil {
		return nil, err
	}
	if h.Bandwidth, err = parse.Float(v[10]); err != nil {
		return nil, err
	}
	if h.DispersionMeasure, err = parse.Float(v[11]); err != nil {
		return nil, err
	}
	if h.RotationMeasure, err = parse.Float(v[12]); err != nil {
		return nil, err
	}

	h.Scale = v[13]
	h.State = v[14]

	if h.Length, err = parse.Float(v[15]); err != nil {
		return nil, err
	}

	h.Receiver = v[16]
	h.Basis = v[17]
	h.Backend = v[18]

	if h.Date, err = parse.Float(v[19]); err != nil {
		return nil, err
	}

	return h, nil
}

// IntendedDirectory derives the canonical archive directory for the
// observation under root, from the source, telescope and instrument.
func (h *RawFileHeader) IntendedDirectory(root string) string {
	return filepath.Join(
		root,
		"PSR_"+strings.ToUpper(h.PsrName),
		strings.ToLower(h.Telescope),
		strings.ToLower(h.Receiver),
		strings.ToLower(h.Backend),
	)
}
