// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxModuleSize bounds the decompressed size of a module, so a small
// artifact cannot expand into unbounded memory.
const maxModuleSize = 16 << 20

// zstdEncoder and zstdDecoder are shared by every Pack and Unpack.
// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		panic("dynenc: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxModuleSize),
	)
	if err != nil {
		panic("dynenc: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

func decompressZstd(compressed []byte) ([]byte, error) {
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(data) > maxModuleSize {
		return nil, fmt.Errorf("zstd decompress: module exceeds %d bytes", maxModuleSize)
	}
	return data, nil
}

// LZ4 uses the frame format: unlike block mode it needs no external
// size and accepts incompressible input.

func compressLZ4(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressLZ4(compressed []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(compressed))
	data, err := io.ReadAll(io.LimitReader(reader, maxModuleSize+1))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if len(data) > maxModuleSize {
		return nil, fmt.Errorf("lz4 decompress: module exceeds %d bytes", maxModuleSize)
	}
	return data, nil
}
