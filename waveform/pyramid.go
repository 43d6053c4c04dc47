package waveform

import "fmt"

// Pyramid holds min/max envelopes of a SampleBuffer at decreasing
// resolutions. Level 0 is the full resolution; every following level
// has half the elements of the previous one.
type Pyramid struct {
	Mins  []Buffer
	Maxes []Buffer
}

func (p Pyramid) Levels() int {
	return len(p.Mins)
}

func (p Pyramid) Empty() bool {
	return len(p.Mins) == 0
}

// Lens returns the element count of each level.
func (p Pyramid) Lens() []int {
	lens := make([]int, len(p.Mins))
	for i, b := range p.Mins {
		lens[i] = b.Len()
	}
	return lens
}

func (p Pyramid) Release() {
	for _, b := range p.Mins {
		b.Release()
	}
	for _, b := range p.Maxes {
		b.Release()
	}
}

// MakeBuffers uploads the envelope pyramid of samples to device.
//
// Levels are produced while the tracked length is greater than 2, so a
// buffer of 2 samples or less yields an empty pyramid.
func MakeBuffers(device Device, samples *SampleBuffer) (Pyramid, error) {
	minSamples := samples.Samples()
	maxSamples := samples.Samples()
	var p Pyramid
	for s := samples.Count(); s > 2; s /= 2 {
		minBuffer, err := device.NewBuffer(minSamples)
		if err != nil {
			p.Release()
			return Pyramid{}, fmt.Errorf("upload min level %d: %w", p.Levels(), err)
		}
		maxBuffer, err := device.NewBuffer(maxSamples)
		if err != nil {
			minBuffer.Release()
			p.Release()
			return Pyramid{}, fmt.Errorf("upload max level %d: %w", p.Levels(), err)
		}
		p.Mins = append(p.Mins, minBuffer)
		p.Maxes = append(p.Maxes, maxBuffer)
		minSamples = BinMin(minSamples, 2)
		maxSamples = BinMax(maxSamples, 2)
	}
	return p, nil
}
