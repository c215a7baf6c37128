/*
Copyright © 2026 the zemokost authors.
This file is part of zemokost.

zemokost is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

zemokost is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with zemokost.  If not, see <http://www.gnu.org/licenses/>.
*/

package zemokost

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCanceled is returned when a run is canceled between stages.
var ErrCanceled = errors.New("zemokost: run canceled by user")

// ConfigError reports every problem found in the inputs of a run before
// any geoprocessing starts.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("zemokost: invalid configuration:\n\t%s", strings.Join(e.Problems, "\n\t"))
}

// add records a problem.
func (e *ConfigError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// merge records the problems of err if it is a *ConfigError and err
// itself as a single problem otherwise.
func (e *ConfigError) merge(err error) {
	if err == nil {
		return
	}
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		e.Problems = append(e.Problems, cerr.Problems...)
		return
	}
	e.Problems = append(e.Problems, err.Error())
}

// errOrNil returns e if it holds any problems and nil otherwise.
func (e *ConfigError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// StageError is returned when a run fails or is canceled. Stage is the
// number of the stage in execution order, starting at 1.
type StageError struct {
	Stage int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("zemokost: step %d (%s): %v", e.Stage, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }
