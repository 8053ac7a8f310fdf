// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"fmt"
	"strings"

	"github.com/whatsapp/wadebug/pkg/artifact"
	apperrors "github.com/whatsapp/wadebug/pkg/errors"
	"github.com/whatsapp/wadebug/pkg/runtime"
)

// CollectionError records the failure of one container.
type CollectionError struct {
	Container runtime.ContainerRef
	Err       error
	// Partial lists the files written for the container before it failed.
	// They stay in the output directory and reach the archive.
	Partial []artifact.Artifact
}

func (e CollectionError) Error() string {
	return fmt.Sprintf("Container: %s\nException: %v", e.Container.Name, e.Err)
}

func (e CollectionError) Unwrap() error {
	return e.Err
}

// LogsNotCompleteError is returned by Run when at least one container
// failed. Result is fully populated, including the archive.
type LogsNotCompleteError struct {
	Failures []CollectionError
	Result   *Result
}

func (e *LogsNotCompleteError) Error() string {
	lines := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		lines = append(lines, f.Error())
	}
	return "Some logs could not be obtained:\n" + strings.Join(lines, "\n")
}

// ErrorCode classifies the error for apperrors.CodeOf.
func (e *LogsNotCompleteError) ErrorCode() apperrors.ErrorCode {
	return apperrors.ErrCodeLogsNotComplete
}

// Unwrap exposes every container failure.
func (e *LogsNotCompleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
