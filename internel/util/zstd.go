package util

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	. "netdrive/internel/log"
	"netdrive/internel/pb"
	"netdrive/internel/shared"
)

var (
	encoderPool = sync.Pool{
		New: func() interface{} {
			writer, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
			if err != nil {
				Log.Errorln("Zstd NewWriter", err)
			}
			return writer
		},
	}
	decoderPool = sync.Pool{
		New: func() interface{} {
			reader, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				Log.Errorln("Zstd NewReader", err)
			}
			return reader
		},
	}
)

// processSendPayload compresses transfer unit content when that makes it smaller.
// The caller's payload is never modified.
func processSendPayload(data *pb.Payload) (*pb.Payload, error) {
	u := data.GetUnit()
	if u == nil || len(u.Content) == 0 || u.Compressed {
		return data, nil
	}
	payload, err := ZstdCompress(u.Content)
	if err != nil {
		Log.Errorln("ZstdCompress", err)
		return nil, err
	}
	if len(payload) >= len(u.Content) {
		return data, nil
	}
	unit := *u
	unit.Content = payload
	unit.Compressed = true
	out := *data
	out.Data = &pb.Payload_Unit{Unit: &unit}
	return &out, nil
}

func processReceivePayload(data *pb.Payload) error {
	u := data.GetUnit()
	if u == nil || !u.Compressed {
		return nil
	}
	payload, err := ZstdDecompress(u.Content, shared.MaxChunkSize)
	if err != nil {
		Log.Errorln("ZstdDecompress", err)
		return err
	}
	u.Content = payload
	u.Compressed = false
	return nil
}

func ZstdCompress(buf []byte) ([]byte, error) {

	buffer := bytes.NewBuffer(nil)
	writer := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(writer)
	writer.Reset(buffer)

	_, err := writer.Write(buf)
	if err != nil {
		Log.Debugln("Zstd Write err", err)
		return nil, err
	}

	if err := writer.Close(); err != nil {
		Log.Debugln("Zstd Close err", err)
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ZstdDecompress inflates buf, refusing output larger than limit bytes.
func ZstdDecompress(buf []byte, limit int64) ([]byte, error) {
	decoder := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(decoder)

	err := decoder.Reset(bytes.NewReader(buf))
	if err != nil {
		Log.Debugln("Zstd Reset err", err)
		return nil, err
	}

	buffer := bytes.NewBuffer(nil)
	n, err := buffer.ReadFrom(io.LimitReader(decoder, limit+1))
	if err != nil {
		Log.Debugln("Zstd ReadFrom err", err)
		return nil, err
	}
	if n > limit {
		return nil, errors.Wrapf(shared.ErrChunkTooLarge, "inflated beyond %d bytes", limit)
	}
	return buffer.Bytes(), nil
}
