// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package prodigy

import "github.com/rs/zerolog"

// SetLogger installs log as the Runner's debug-level logger, for the
// locally-recovered conditions spec §4.9/§7 call out: malformed packets,
// unknown routes, late responses, and recovered handler panics. Passing the
// zero Logger disables logging, the Runner's default.
func (r *Runner) SetLogger(log zerolog.Logger) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = log
	return r
}
