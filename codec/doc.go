// Package codec implements the bit-level message codec: the schema that
// fixes per-field bit widths for a dataset, the IndexCounts encoding for
// sparse per-message tallies, and the message writer with its two decode
// modes (eager and lazy).
//
// Every encoded message in a dataset uses the same Schema. The schema is
// derived once, after all dictionaries are finalized, and is immutable
// thereafter; decoding with a different schema than the one used for
// encoding is undefined behavior, which is why the blob container embeds a
// schema fingerprint next to the payload.
package codec
