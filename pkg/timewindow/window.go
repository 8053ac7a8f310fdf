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

// Package timewindow resolves the absolute time range used to bound container
// log retrieval.
package timewindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	apperrors "github.com/whatsapp/wadebug/pkg/errors"
)

// Window is an immutable [Start, End] range. Start is never after End.
type Window struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Unix returns the bounds as integer epoch seconds, the resolution the
// container runtime accepts.
func (w Window) Unix() (since, until int64) {
	return w.Start.Unix(), w.End.Unix()
}

// String renders the window in RFC 3339.
func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Resolve computes the log window relative to the current time.
// See ResolveAt.
func Resolve(anchor, format string, loc *time.Location, d time.Duration) (Window, error) {
	return ResolveAt(anchor, format, loc, d, time.Now())
}

// ResolveAt computes the log window. With an anchor the window is
// [anchor, anchor+d]; without one it is [now-d, now], now taken in loc.
// The anchor is parsed with format in loc; format is either a strftime
// pattern (contains '%') or a Go reference layout.
// The end time is not validated against now.
func ResolveAt(anchor, format string, loc *time.Location, d time.Duration, now time.Time) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	if d < 0 {
		return Window{}, apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"log window duration must not be negative", map[string]any{"duration": d.String()})
	}

	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		end := now.In(loc)
		return Window{Start: end.Add(-d), End: end}, nil
	}

	start, err := Parse(anchor, format, loc)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: start.Add(d)}, nil
}

// Parse parses value with format in loc.
func Parse(value, format string, loc *time.Location) (time.Time, error) {
	layout, err := Layout(format)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.WrapWithContext(apperrors.ErrCodeParse,
			fmt.Sprintf("time %q does not match format %q", value, format), err,
			map[string]any{"value": value, "format": format})
	}
	return t, nil
}

// Layout converts format into a Go reference layout. Strftime patterns are
// translated; anything without a '%' is returned unchanged.
//
// Like strptime, numeric fields of a strftime pattern accept values without
// leading zeros when a non-digit follows them. Fields that run into another
// number keep their fixed width so the value can still be split.
func Layout(format string) (string, error) {
	if !strings.Contains(format, "%") {
		if format == "" {
			return "", apperrors.New(apperrors.ErrCodeParse, "time format is empty")
		}
		return format, nil
	}
	if _, err := strftime.Layout(format); err != nil {
		return "", apperrors.WrapWithContext(apperrors.ErrCodeParse,
			"unsupported time format", err, map[string]any{"format": format})
	}

	tokens := splitDirectives(format)
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		l, err := strftime.Layout(tok)
		if err != nil {
			return "", apperrors.WrapWithContext(apperrors.ErrCodeParse,
				"unsupported time format", err, map[string]any{"format": format})
		}
		parts[i] = l
	}

	var b strings.Builder
	for i, part := range parts {
		if short, ok := unpadded[part]; ok && (i == len(parts)-1 || !startsWithDigit(parts[i+1])) {
			part = short
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

// unpadded maps fixed-width Go elements to their one-or-two digit forms.
var unpadded = map[string]string{
	"01": "1", // month
	"02": "2", // day
	"03": "3", // 12-hour
	"04": "4", // minute
	"05": "5", // second
}

// splitDirectives splits a strftime pattern into single directives and the
// literal runs between them.
func splitDirectives(format string) []string {
	var tokens []string
	start := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			continue
		}
		if i > start {
			tokens = append(tokens, format[start:i])
		}
		end := i + 2
		if strings.IndexByte("-_0^#EO", format[i+1]) >= 0 && end < len(format) {
			end++
		}
		tokens = append(tokens, format[i:end])
		start = end
		i = end - 1
	}
	if start < len(format) {
		tokens = append(tokens, format[start:])
	}
	return tokens
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
