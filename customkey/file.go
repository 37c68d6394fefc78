package customkey

import (
	"errors"
	"io/fs"
	"os"
)

// readFileTolerant reads path, returning (nil, nil) if the file does not
// exist rather than an error.
func readFileTolerant(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
