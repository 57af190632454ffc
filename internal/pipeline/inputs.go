package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/SGullin/arpa/internal/archivist"
	"github.com/SGullin/arpa/internal/checksum"
	"github.com/SGullin/arpa/internal/header"
	"github.com/SGullin/arpa/internal/model"
)

// ResolveRaw turns an input text into raw-file metadata. Numeric text
// is treated as an existing entry's id; anything else as a path to a
// file that gets registered (and, by policy, archived) first.
func (p *Pipeline) ResolveRaw(ctx context.Context, text string) (*model.RawMeta, error) {
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return archivist.Get[model.RawMeta](ctx, p.Store, id)
	}
	return p.rawFromFile(ctx, text)
}

func (p *Pipeline) rawFromFile(ctx context.Context, path string) (*model.RawMeta, error) {
	p.Logger.Debug("picking raw file by path", "path", path)

	raw, err := p.prepareRawMeta(ctx, path)
	if err != nil {
		return nil, err
	}

	p.Logger.Info("inserting raw file", "path", path)
	if _, err := p.Store.Insert(ctx, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// prepareRawMeta reads the file's header, resolves the observing
// system and pulsar it refers to, and archives the file when the
// configuration says to.
func (p *Pipeline) prepareRawMeta(ctx context.Context, path string) (*model.RawMeta, error) {
	if err := assertExists(path); err != nil {
		return nil, err
	}

	h, err := header.Read(p.PSRChive, path)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("got raw header info", "file", h.Filename)

	system, err := model.FindObsSystem(
		ctx, p.Store, h.Telescope, h.Receiver, h.Backend,
	)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return nil, fmt.Errorf(
			"no observing system registered for telescope %q, frontend %q, backend %q",
			h.Telescope, h.Receiver, h.Backend,
		)
	}
	p.Logger.Debug("found observation system", "name", system.Name)

	pulsarID, err := p.resolvePulsar(ctx, h.PsrName)
	if err != nil {
		return nil, err
	}

	filePath := path
	var sum checksum.Sum
	if p.Config.Behaviour.ArchiveRawFiles {
		p.Logger.Info("archiving file", "path", path)
		directory := h.IntendedDirectory(p.Config.Paths.RawFileStorage)
		sum, filePath, err = p.Archiver.Archive(path, directory, h.Filename)
	} else {
		p.Logger.Info("currently set to not archive raw files")
		sum, err = checksum.File(path, p.Config.Behaviour.ChecksumBlockSize)
	}
	if err != nil {
		return nil, err
	}

	return &model.RawMeta{
		FilePath:   filePath,
		Checksum:   sum,
		PulsarID:   pulsarID,
		ObserverID: system.ID(),
	}, nil
}

// resolvePulsar finds the pulsar by catalogue name, registering it on
// the fly when the configuration allows.
func (p *Pipeline) resolvePulsar(ctx context.Context, name string) (int64, error) {
	pulsar, err := archivist.Find[model.PulsarMeta](
		ctx, p.Store, "j_name = ?", name,
	)
	if err != nil {
		return 0, err
	}
	if pulsar != nil {
		return pulsar.ID(), nil
	}
	p.Logger.Debug("unrecognised pulsar", "name", name)

	if !p.Config.Behaviour.AutoAddPulsars {
		return 0, fmt.Errorf(
			"no pulsar named %q, and auto-adding is off", name,
		)
	}

	p.Logger.Info("adding pulsar", "name", name)
	meta := &model.PulsarMeta{Alias: name}
	if err := meta.Verify(); err != nil {
		return 0, err
	}
	return p.Store.Insert(ctx, meta)
}

// ResolvePar turns an input text into ephemeris metadata: an existing
// entry's id, or a path to register. A registered file's checksum may
// resolve to a preexisting entry instead, by policy.
func (p *Pipeline) ResolvePar(ctx context.Context, raw *model.RawMeta, text string) (*model.ParMeta, error) {
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return archivist.Get[model.ParMeta](ctx, p.Store, id)
	}

	p.Logger.Debug("parsing ephemeride path", "path", text)
	if err := assertExists(text); err != nil {
		return nil, err
	}

	meta, err := model.NewParMeta(
		text, raw.PulsarID, p.Config.Behaviour.ChecksumBlockSize,
	)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("inserting ephemeride", "path", text)

	if p.Config.Behaviour.AutoResolveDuplicateUploads {
		existing, err := archivist.Find[model.ParMeta](
			ctx, p.Store, "checksum = ?", meta.Checksum,
		)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			p.Logger.Warn(
				"ephemeride already exists, picking it instead",
				"checksum", existing.Checksum,
			)
			return existing, nil
		}
	}

	if _, err := p.Store.Insert(ctx, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// ResolveTemplate turns an input text into template metadata, with the
// same id-or-path and duplicate rules as ResolvePar.
func (p *Pipeline) ResolveTemplate(ctx context.Context, raw *model.RawMeta, text string) (*model.TemplateMeta, error) {
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return archivist.Get[model.TemplateMeta](ctx, p.Store, id)
	}

	p.Logger.Debug("picking template by path", "path", text)
	if err := assertExists(text); err != nil {
		return nil, err
	}

	meta, err := model.NewTemplateMeta(
		text, raw.PulsarID, p.Config.Behaviour.ChecksumBlockSize,
	)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("inserting new template", "path", text)

	if p.Config.Behaviour.AutoResolveDuplicateUploads {
		existing, err := archivist.Find[model.TemplateMeta](
			ctx, p.Store, "checksum = ?", meta.Checksum,
		)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			p.Logger.Warn(
				"template already exists, picking it instead",
				"checksum", existing.Checksum,
			)
			return existing, nil
		}
	}

	if _, err := p.Store.Insert(ctx, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func assertExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("missing file or directory %q: %w", path, err)
	}
	return nil
}
