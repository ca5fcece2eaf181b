package engine

// Compress slides all non-zero values toward index 0, keeping their order,
// and pads the rest of the line with zeros. The input is not modified.
func Compress(line []int) []int {
	out := make([]int, len(line))
	n := 0
	for _, v := range line {
		if v != 0 {
			out[n] = v
			n++
		}
	}
	return out
}

// Merge combines equal adjacent non-zero pairs in a single left-to-right pass
// and compresses the result. A cell produced by a merge is never merged again
// in the same pass, so [2,2,2,2] becomes [4,4,0,0].
func Merge(line []int) []int {
	out := make([]int, len(line))
	copy(out, line)
	for i := 0; i < len(out)-1; i++ {
		if out[i] != 0 && out[i] == out[i+1] {
			out[i] *= 2
			out[i+1] = 0
			i++
		}
	}
	return Compress(out)
}

// SlideLine runs the full move pipeline on one line: compress, merge, compress.
func SlideLine(line []int) []int {
	return Compress(Merge(Compress(line)))
}

func reversed(line []int) []int {
	out := make([]int, len(line))
	for i, v := range line {
		out[len(line)-1-i] = v
	}
	return out
}
