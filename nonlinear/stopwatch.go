// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import "time"

// accum returns a stop func that adds the elapsed time to bucket.
//
//	defer accum(&s.gradTime)()
func accum(bucket *time.Duration) func() {
	start := time.Now()
	return func() { *bucket += time.Since(start) }
}
