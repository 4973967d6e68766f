package transfer

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"netdrive/internel/hash"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

// Source describes the file a Send produces units for.
type Source struct {
	Owner *pb.User
	// Path is the logical directory for uploads, the logical file for downloads.
	Path string
	Name string
	Size int64
	// ChunkSize defaults to, and is capped at, shared.MaxChunkSize.
	ChunkSize int
}

// Send reads src from r one chunk per permit grant and hands each unit to
// consumer. It stops after the end unit, when the permit is aborted, or when
// ctx is done. It returns the number of bytes read.
func Send(ctx context.Context, r io.Reader, src Source, permit *Permit, consumer func(*pb.TransferUnit) error) (int64, error) {
	if r == nil {
		return 0, errors.New("reader required")
	}
	chunk := int64(src.ChunkSize)
	if chunk <= 0 || chunk > shared.MaxChunkSize {
		chunk = shared.MaxChunkSize
	}

	if src.Size < 0 {
		return 0, errors.Errorf("negative size %d", src.Size)
	}

	plan := Plan(src.Size, chunk)
	var read int64
	for i, n := range plan {
		if err := permit.Acquire(ctx); err != nil {
			return read, err
		}
		if permit.Aborted() {
			return read, shared.ErrAborted
		}

		buffer := make([]byte, n)
		if _, err := io.ReadFull(r, buffer); err != nil {
			return read, errors.Wrapf(err, "failed reading part %d", i+1)
		}
		read += n

		unit := &pb.TransferUnit{
			Owner:    src.Owner,
			Path:     src.Path,
			Name:     src.Name,
			FullSize: src.Size,
			Checksum: hash.Checksum(buffer),
			Content:  buffer,
			IsStart:  i == 0,
			IsEnd:    i == len(plan)-1,
			Part:     int32(i + 1),
		}
		if err := consumer(unit); err != nil {
			return read, err
		}
	}
	return read, nil
}
