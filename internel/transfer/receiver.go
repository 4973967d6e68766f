package transfer

import (
	"os"

	"github.com/pkg/errors"

	"netdrive/internel/hash"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

// Receiver appends verified units to the file at Path. It keeps no file handle
// between units.
type Receiver struct {
	Path string
	// Overwrite lets the start unit truncate an existing file. Without it the
	// start unit fails with shared.ErrAlreadyExists.
	Overwrite bool

	Received int64
}

// Accept verifies and appends one unit and reports whether it was the last.
// Every corruption it detects removes the partial file before returning.
func (r *Receiver) Accept(u *pb.TransferUnit) (bool, error) {
	if u == nil {
		return false, errors.New("missing transfer unit")
	}
	if len(u.Content) > shared.MaxChunkSize {
		r.discardPartial(u)
		return false, errors.Wrapf(shared.ErrChunkTooLarge, "part %d has %d bytes", u.Part, len(u.Content))
	}
	if !hash.Equal(hash.Checksum(u.Content), u.Checksum) {
		r.discardPartial(u)
		return false, errors.Wrapf(shared.ErrChecksum, "part %d", u.Part)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if u.IsStart {
		if r.Overwrite {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		} else {
			flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		}
	}
	f, err := os.OpenFile(r.Path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, errors.Wrapf(shared.ErrAlreadyExists, "create %s", u.Name)
		}
		r.discardPartial(u)
		return false, errors.Wrapf(err, "open %s", r.Path)
	}
	_, err = f.Write(u.Content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		r.Discard()
		return false, errors.Wrapf(err, "write part %d", u.Part)
	}
	r.Received += int64(len(u.Content))

	if !u.IsEnd {
		return false, nil
	}
	info, err := os.Stat(r.Path)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", r.Path)
	}
	if info.Size() != u.FullSize {
		r.Discard()
		return false, errors.Wrapf(shared.ErrLength, "got %d bytes, want %d", info.Size(), u.FullSize)
	}
	if u.IsStart {
		// Single-shot transfer: the chunk checksum is the whole-file checksum.
		sum, err := hash.FileChecksum(r.Path)
		if err != nil {
			r.Discard()
			return false, err
		}
		if !hash.Equal(sum, u.Checksum) {
			r.Discard()
			return false, errors.Wrapf(shared.ErrChecksum, "file %s", u.Name)
		}
	}
	return true, nil
}

// Discard removes the partial file.
func (r *Receiver) Discard() {
	_ = os.Remove(r.Path)
	r.Received = 0
}

// discardPartial only removes the file if an earlier unit of this transfer
// created it; before the start unit lands the path may hold someone else's file.
func (r *Receiver) discardPartial(u *pb.TransferUnit) {
	if !u.IsStart {
		r.Discard()
	}
}
