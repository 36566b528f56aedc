/*
File Name:  Sanitize.go
Copyright:  2024 Tablesight s.r.o.
Author:     Tablesight Team

Path sanitization shared by configsync's Path and PathArray value types.
*/

package sanitize

const PATH_MAX_LENGTH = 32767 // Windows Maximum Path Length for UNC paths

// PathFile sanitizes the filename.
func PathFile(filename string) string {
	// Enforce max filename length.
	if len(filename) > PATH_MAX_LENGTH {
		filename = filename[:PATH_MAX_LENGTH]
	}

	return filename
}
