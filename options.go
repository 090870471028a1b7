/*
 * Copyright 2024 The Memsched Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memsched

import (
	"log"
	"os"
	"strconv"
)

// Algorithm selects a single-computation scheduling strategy.
type Algorithm int

const (
	// Default runs List, DFS, and PostOrder and keeps the minimum-peak
	// result.
	Default Algorithm = iota
	// List runs only the list scheduler.
	List
	// DFS runs only the DFS scheduler.
	DFS
	// PostOrder runs only the natural post-order scheduler.
	PostOrder
)

func (a Algorithm) String() string {
	switch a {
	case Default:
		return "default"
	case List:
		return "list"
	case DFS:
		return "dfs"
	case PostOrder:
		return "post_order"
	default:
		return "unknown"
	}
}

type config struct {
	algorithm       Algorithm
	logger          *log.Logger
	verboseLevel    int
	dfsClampUsers   int64
	dfsClampSize    int64
}

// verboseLevelFromEnv seeds the default verbosity from MEMSCHED_VLOG_LEVEL.
func verboseLevelFromEnv() int {
	v := os.Getenv("MEMSCHED_VLOG_LEVEL")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func defaultConfig() *config {
	return &config{
		algorithm:    Default,
		verboseLevel: verboseLevelFromEnv(),
	}
}

// Option configures a scheduling call.
type Option func(*config)

// WithAlgorithm picks a single-computation strategy instead of the
// default multi-strategy driver.
func WithAlgorithm(a Algorithm) Option {
	return func(c *config) { c.algorithm = a }
}

// WithLogger redirects trace output. The default is the package-level
// Logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithVerboseLevel raises or lowers trace verbosity. Seedable from
// MEMSCHED_VLOG_LEVEL when omitted.
func WithVerboseLevel(n int) Option {
	return func(c *config) { c.verboseLevel = n }
}

// WithDFSClampOverrides fixes the DFS heuristic's overflow-guard
// constants: maxExtraUsers replaces the extra-users clamp derived from
// the module, and maxTotalSize caps the total-size clamp derived from
// the running cumulative size. Zero keeps the derived value. Primarily
// useful in tests, where a fixed clamp keeps
// expected scores independent of unrelated fixture growth.
func WithDFSClampOverrides(maxExtraUsers, maxTotalSize int64) Option {
	return func(c *config) {
		c.dfsClampUsers = maxExtraUsers
		c.dfsClampSize = maxTotalSize
	}
}
