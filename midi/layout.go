package midi

// Launchpad X grid coordinates. Rows 0-7 are the square pads counted up
// from the bottom, col 8 is the scene column on the right and row 8 is the
// round button strip along the top.
const (
	TopRow   = 8
	gridRows = 8

	// top strip buttons the drum machine uses
	VolumeUpCol   = 0
	VolumeDownCol = 1
	PowerCol      = 7
)

// PadCell places pad i of an n-pad kit that is cols wide. Pads fill the
// bottom-left corner with the first kit row highest, so the grid reads
// like the keyboard. Kit rows past the top of the grid have no cell.
func PadCell(i, n, cols int) (row, col int, ok bool) {
	r, c := i/cols, i%cols
	rows := min((n+cols-1)/cols, gridRows)
	if r >= rows {
		return -1, -1, false
	}
	return rows - 1 - r, c, true
}

// CellPad is the inverse of PadCell
func CellPad(row, col, n, cols int) (int, bool) {
	if row < 0 || row >= gridRows || col < 0 || col >= cols {
		return -1, false
	}
	r := min((n+cols-1)/cols, gridRows) - 1 - row
	if r < 0 {
		return -1, false
	}
	if i := r*cols + col; i < n {
		return i, true
	}
	return -1, false
}

// gridNote is the note that lights (row, col). The top strip is driven
// with notes 91-98 even though it reports presses as CCs.
func gridNote(row, col int) uint8 {
	if row == TopRow {
		return uint8(91 + col)
	}
	return uint8(10*(row+1) + col + 1)
}

// noteCell maps an incoming note to a cell, row -1 when it is off the grid
func noteCell(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return TopRow, int(note) - 91
	}
	row, col = int(note)/10-1, int(note)%10-1
	if row < 0 || row >= gridRows || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

// ccCell maps a top strip CC to its cell
func ccCell(cc uint8) (row, col int) {
	if cc < 91 || cc > 98 {
		return -1, -1
	}
	return TopRow, int(cc) - 91
}
