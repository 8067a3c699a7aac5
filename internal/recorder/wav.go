package recorder

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(path string, samples []int16, rate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i := range samples {
		buf.Data[i] = int(samples[i])
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
