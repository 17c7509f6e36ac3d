// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package benchmark

import (
	"bytes"
	"errors"

	"github.com/Query-farm/strictpack/strictpack"
)

// Generate encodes Count values {i, value} where value = i * 10 into one
// buffer.
type Generate struct {
	I     int64 `strictpack:"i"`
	Value int64 `strictpack:"value"`
}

// EncodeGenerated writes count Generate values back to back.
func EncodeGenerated(c *strictpack.TypedCodec[Generate], count int) ([]byte, error) {
	var buf bytes.Buffer
	for i := range count {
		if err := c.Encode(&buf, Generate{I: int64(i), Value: int64(i) * 10}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Transform decodes every value in data, scales it by factor and
// re-encodes it, returning the number of values processed.
func Transform(c *strictpack.TypedCodec[Generate], data []byte, factor int64) ([]byte, int, error) {
	r := bytes.NewReader(data)
	var out bytes.Buffer
	n := 0
	for {
		v, err := c.Decode(r)
		if errors.Is(err, strictpack.ErrStreamEnded) {
			return out.Bytes(), n, nil
		}
		if err != nil {
			return nil, n, err
		}
		v.Value *= factor
		if err := c.Encode(&out, v); err != nil {
			return nil, n, err
		}
		n++
	}
}
