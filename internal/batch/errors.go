package batch

import "fmt"

// EnvironmentError reports a run that could not start: the input directory is
// missing or the output directory cannot be created.
type EnvironmentError struct {
	Op   string
	Path string
	Err  error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Path)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// FileError reports the file that aborted a run.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to process %s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
