package image

import "bytes"

// Scan returns the offsets >= from where needle occurs in data, scanning left
// to right. After each match the cursor moves to match+step. A step of
// len(needle) yields non-overlapping matches; a step of 1 yields every
// occurrence including overlapping ones. Steps below 1 are treated as 1.
//
// An empty needle matches nothing.
func Scan(data, needle []byte, from, step int) []int {
	if len(needle) == 0 {
		return nil
	}
	if step < 1 {
		step = 1
	}
	if from < 0 {
		from = 0
	}

	var offsets []int
	cursor := from
	for cursor <= len(data)-len(needle) {
		i := bytes.Index(data[cursor:], needle)
		if i < 0 {
			break
		}
		match := cursor + i
		offsets = append(offsets, match)
		cursor = match + step
	}
	return offsets
}

// Next returns the first offset >= from where needle occurs, or -1.
func Next(data, needle []byte, from int) int {
	if len(needle) == 0 || from < 0 || from > len(data)-len(needle) {
		return -1
	}
	i := bytes.Index(data[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}
