// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides keeper's CBOR encoding configuration, used for
// the supervisor's on-disk status snapshot.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items, so
// an unchanged state always produces identical bytes.
//
//	data, err := codec.Marshal(snapshot)
//	err = codec.Unmarshal(data, &snapshot)
//
// Types that are also printed by `keeper status --json` carry `json`
// struct tags; fxamacker/cbor reads them when `cbor` tags are absent,
// so one tag governs both formats.
package codec
