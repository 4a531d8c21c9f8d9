package fileops

import (
	"encoding/binary"
	"fmt"
	"os"
)

// osdbHashChunkSize is the size of the chunk read from the start and end of the file.
const osdbHashChunkSize = 65536 // 64 * 1024

// checksumBuffer calculates the sum of 64-bit little-endian integers in the buffer.
func checksumBuffer(buf []byte) (sum uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	return
}

// CalculateOSDbHash calculates the OpenSubtitles Movie Hash for a video file:
// file size plus the checksums of the first and last 64KB, formatted as a
// 16-character hex string. Overflow during summation is part of the algorithm.
// See http://trac.opensubtitles.org/projects/opensubtitles/wiki/HashSourceCodes
func CalculateOSDbHash(filePath string) (hash string, byteSize int64, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		err = fmt.Errorf("failed to open file for OSDb hashing '%s': %w", filePath, err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		err = fmt.Errorf("failed to stat file '%s': %w", filePath, err)
		return
	}

	byteSize = stat.Size()
	if byteSize < osdbHashChunkSize*2 {
		err = fmt.Errorf("file '%s' is too small for OSDb hashing (size: %d)", filePath, byteSize)
		return
	}

	startBuf := make([]byte, osdbHashChunkSize)
	if _, err = file.Read(startBuf); err != nil {
		err = fmt.Errorf("failed to read start chunk from '%s': %w", filePath, err)
		return
	}

	endBuf := make([]byte, osdbHashChunkSize)
	if _, err = file.ReadAt(endBuf, byteSize-osdbHashChunkSize); err != nil {
		err = fmt.Errorf("failed to read end chunk from '%s': %w", filePath, err)
		return
	}

	finalHash := uint64(byteSize) + checksumBuffer(startBuf) + checksumBuffer(endBuf)
	hash = fmt.Sprintf("%016x", finalHash)
	return
}
