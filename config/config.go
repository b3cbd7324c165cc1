// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config holds the two tunables every parallel operator needs
// (target rows per partition, worker pool width), passed explicitly
// rather than kept as process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"runtime"

	"sigs.k8s.io/yaml"
)

// MaxPartitionSize is the upper bound on Config.PrtSize.
const MaxPartitionSize = 1_000_000

// Config is the pair of tunables passed explicitly into every parallel.*
// entry point; the partition.* engines take a pool and a partition count
// instead.
type Config struct {
	// PrtSize is the target number of rows per partition; must be in
	// (0, MaxPartitionSize].
	PrtSize int `json:"prtSize"`
	// NumThreads is the worker pool width a caller passes to
	// workerpool.New. The parallel operators check that it is positive
	// but run on the pool they are given; they create no pool of their own.
	NumThreads int `json:"numThreads"`
}

// Default returns MaxPartitionSize and runtime.NumCPU().
func Default() Config {
	return Config{PrtSize: MaxPartitionSize, NumThreads: runtime.NumCPU()}
}

// Load reads a YAML file into a Config seeded with Default(), validates
// it, and returns it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the PrtSize cap and positivity of both fields.
func (c Config) Validate() error {
	if c.PrtSize <= 0 {
		return fmt.Errorf("config: PrtSize must be positive, got %d", c.PrtSize)
	}
	if c.PrtSize > MaxPartitionSize {
		return fmt.Errorf("config: PrtSize %d exceeds max %d", c.PrtSize, MaxPartitionSize)
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("config: NumThreads must be positive, got %d", c.NumThreads)
	}
	return nil
}

// Partitions computes P = |L| / PrtSize, floored at 1, the partition
// count every parallel.* entry point uses. An empty L makes this ill-defined; that's
// a caller-reachable input condition rather than a programmer mistake,
// so it's reported as an error rather than left to panic.
func (c Config) Partitions(leftLen int) (int, error) {
	if leftLen == 0 {
		return 0, fmt.Errorf("config: cannot compute partition count for an empty L")
	}
	p := leftLen / c.PrtSize
	if p < 1 {
		p = 1
	}
	return p, nil
}
