// Package audiofile turns audio files into per-channel float samples.
package audiofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/cellux/waveview/waveform"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoChannel         = errors.New("no such channel")
)

// File is decoded audio, one slice per channel, samples in [-1, 1].
type File struct {
	Path       string
	SampleRate int
	Channels   [][]float32
}

func (f *File) NumChannels() int {
	return len(f.Channels)
}

func (f *File) NumFrames() int {
	if len(f.Channels) == 0 {
		return 0
	}
	return len(f.Channels[0])
}

// SampleBuffer wraps one channel. Every call returns a new buffer.
func (f *File) SampleBuffer(channel int) (*waveform.SampleBuffer, error) {
	if channel < 0 || channel >= len(f.Channels) {
		return nil, fmt.Errorf("channel %d of %d: %w", channel, len(f.Channels), ErrNoChannel)
	}
	return waveform.NewSampleBuffer(f.Channels[channel]), nil
}

// FloatChannelData splits frame-interleaved samples into one slice per
// channel. A trailing partial frame is dropped.
func FloatChannelData(interleaved []float32, channels int) ([][]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	frames := len(interleaved) / channels
	result := make([][]float32, channels)
	for ch := range result {
		data := make([]float32, frames)
		for i := range data {
			data[i] = interleaved[i*channels+ch]
		}
		result[ch] = data
	}
	return result, nil
}

// Load decodes the file at path, picking the decoder by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(bytes.NewReader(data), filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode reads audio of the given format, named by file extension
// with or without the leading dot.
func Decode(r io.ReadSeeker, format string) (*File, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "wav", "wave":
		return decodeWav(r)
	case "mp3":
		return decodeMp3(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeWav(r io.ReadSeeker) (*File, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: WAV audio format %d, only PCM is supported", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	// 8-bit PCM is unsigned, centered on 128
	var offset float32
	if bitDepth == 8 {
		offset = 128
	}
	interleaved := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = (float32(v) - offset) / scale
	}
	channels, err := FloatChannelData(interleaved, buf.Format.NumChannels)
	if err != nil {
		return nil, err
	}
	return &File{
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
	}, nil
}

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMp3(r io.Reader) (*File, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decode MP3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode MP3: %w", err)
	}
	interleaved := make([]float32, len(pcm)/2)
	for i := range interleaved {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		interleaved[i] = float32(v) / 32768.0
	}
	channels, err := FloatChannelData(interleaved, mp3Channels)
	if err != nil {
		return nil, err
	}
	return &File{
		SampleRate: dec.SampleRate(),
		Channels:   channels,
	}, nil
}
