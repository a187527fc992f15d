// Package nav holds the pure navigation rules shared by the grid and the
// single-image viewer.
package nav

import "image-browser/internal/records"

// IndexOf returns the position of the record with the given id, or -1.
// Linear scan by identity; fine for typical folder sizes but a potential hot
// path for very large collections if called per keystroke.
func IndexOf(id string, list []*records.ImageRecord) int {
	for i, rec := range list {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Previous returns the record before current. At the first element it
// returns nil unless wrap is set, in which case it returns the last.
func Previous(current string, list []*records.ImageRecord, wrap bool) *records.ImageRecord {
	i := IndexOf(current, list)
	if i < 0 || len(list) == 0 {
		return nil
	}
	if i == 0 {
		if !wrap {
			return nil
		}
		return list[len(list)-1]
	}
	return list[i-1]
}

// Next returns the record after current. At the last element it returns the
// first when wrap is enabled, reporting wrapped so a grid view can scroll
// back to top; otherwise it returns nil.
func Next(current string, list []*records.ImageRecord, wrap bool) (rec *records.ImageRecord, wrapped bool) {
	i := IndexOf(current, list)
	if i < 0 || len(list) == 0 {
		return nil, false
	}
	if i == len(list)-1 {
		if !wrap {
			return nil, false
		}
		return list[0], true
	}
	return list[i+1], false
}

// AfterDelete returns the index to select after removing the element that
// was at deletedIndex, given the collection's post-removal length. The
// following item takes the slot when one exists, else the preceding item,
// else nothing (ok false).
func AfterDelete(deletedIndex, newLength int) (int, bool) {
	if newLength <= 0 {
		return 0, false
	}
	if deletedIndex < newLength {
		return deletedIndex, true
	}
	return newLength - 1, true
}
