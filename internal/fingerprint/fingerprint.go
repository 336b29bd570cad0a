// Package fingerprint derives stable cache keys from configuration values.
//
// A fingerprint reflects a value's semantic content rather than its
// identity: two deeply equal values always fingerprint identically,
// regardless of how their maps were populated.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a deterministic fingerprint of the given value.
//
// The value must be encodable as JSON; Hash panics otherwise.
// Map keys are encoded in sorted order,
// so fingerprints are insensitive to key ordering.
func Hash(v any) string {
	bs, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fingerprint: cannot encode %T: %v", v, err))
	}
	return strconv.FormatUint(xxhash.Sum64(bs), 16)
}
