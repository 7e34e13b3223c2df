package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var errTruncated = errors.New("file is shorter than the cursor")

// readDelta returns every byte of path from position from to the current end
// of file. It returns errTruncated if the file no longer reaches from.
func readDelta(path string, from int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error while opening file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}
	if info.Size() < from {
		return nil, errTruncated
	}

	if _, err := file.Seek(from, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to %d: %w", from, err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
