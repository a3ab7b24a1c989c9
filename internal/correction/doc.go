// Package correction implements the bounded-concurrency pipeline that
// corrects a lesson transcript in segment groups. It partitions the
// ordered segment list, fans the groups out to a correction capability
// under a concurrency cap, and merges results back in original order.
// A failed group falls back to its original text; output length always
// equals input length.
package correction
