// Package encoder compresses captured PCM to FLAC before upload. Lossless
// keeps the transcription service's accuracy while cutting the payload to
// roughly half of raw 16 kHz mono.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)
