package engine

// MaxTile returns the largest value on the board
func MaxTile(b Board) int {
	maxVal := 0
	for _, row := range b {
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	return maxVal
}

// CountTiles counts the non-empty cells on the board
func CountTiles(b Board) int {
	count := 0
	for _, row := range b {
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// SumTiles returns the sum of all cell values, which moves never change
func SumTiles(b Board) int {
	sum := 0
	for _, row := range b {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}
