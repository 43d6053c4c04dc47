package waveform

import "math"

// BinMin returns the minimum of each complete bin of binSize samples.
//
// The result has len(samples)/binSize elements. Samples at the end
// which do not fill a whole bin are dropped.
func BinMin(samples []float32, binSize int) []float32 {
	out := make([]float32, len(samples)/binSize)
	for bin := range out {
		v := float32(math.MaxFloat32)
		for _, s := range samples[bin*binSize : (bin+1)*binSize] {
			if s < v {
				v = s
			}
		}
		out[bin] = v
	}
	return out
}

// BinMax is the maximum counterpart of BinMin.
func BinMax(samples []float32, binSize int) []float32 {
	out := make([]float32, len(samples)/binSize)
	for bin := range out {
		v := float32(-math.MaxFloat32)
		for _, s := range samples[bin*binSize : (bin+1)*binSize] {
			if s > v {
				v = s
			}
		}
		out[bin] = v
	}
	return out
}
