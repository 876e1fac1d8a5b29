package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWAV writes 16-bit PCM samples as a WAV file.
func WriteWAV(w io.Writer, pcm []int16, sampleRate, channels int) error {
	dataSize := len(pcm) * 2
	fileSize := 36 + dataSize

	header := make([]byte, 44)

	// RIFF header
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(fileSize))
	copy(header[8:12], "WAVE")

	// fmt chunk
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)                             // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)                              // PCM format
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))               // channels
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))             // sample rate
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*2))  // byte rate
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*2))             // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)                             // bits per sample

	// data chunk
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, pcm)
}

// maxWAVDataBytes bounds the data-chunk allocation so a corrupt header
// cannot demand gigabytes.
const maxWAVDataBytes = 1 << 30

// ReadWAV parses a 16-bit PCM WAV stream and returns the samples together
// with the sample rate and channel count.
func ReadWAV(r io.Reader) ([]int16, int, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("not a WAV file")
	}

	var sampleRate, channels, bits int
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, 0, 0, fmt.Errorf("reading chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, 0, fmt.Errorf("reading fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
			if format != 1 || bits != 16 {
				return nil, 0, 0, fmt.Errorf("unsupported WAV format: format=%d bits=%d", format, bits)
			}
		case "data":
			if sampleRate == 0 {
				return nil, 0, 0, fmt.Errorf("WAV data chunk before fmt chunk")
			}
			if size > maxWAVDataBytes {
				return nil, 0, 0, fmt.Errorf("data chunk too large: %d bytes", size)
			}
			pcm := make([]int16, size/2)
			if err := binary.Read(r, binary.LittleEndian, pcm); err != nil {
				return nil, 0, 0, fmt.Errorf("reading samples: %w", err)
			}
			return pcm, sampleRate, channels, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return nil, 0, 0, fmt.Errorf("skipping %s chunk: %w", id, err)
			}
		}
	}
}
