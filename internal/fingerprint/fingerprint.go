// Package fingerprint derives the stable cache identity of a diagnosis run
// from the designer's source representation, the expanded design points and
// the simulation configuration.
//
// The digest is order-sensitive on points: the expander's deterministic order
// means identical inputs always serialize identically, and a different point
// order is a genuinely different evaluation. Changing this policy invalidates
// every existing cache entry, which is what SimConfig.CacheVersion is for.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"github.com/vk/designgridgo/internal/designspace"
	"github.com/vk/designgridgo/internal/model"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Fingerprint computes the cache key for one evaluation. Identical inputs
// always yield an identical key, across calls and across process restarts.
func Fingerprint(designerSource []byte, points []designspace.Point, cfg model.SimConfig) model.CacheKey {
	h := sha256.New()

	frame(h, []byte("source"))
	frame(h, designerSource)

	frame(h, []byte("config"))
	frame(h, []byte(fmt.Sprintf("sims=%d;bootstraps=%d;seed=%d;version=%s",
		cfg.Simulations, cfg.Bootstraps, cfg.Seed, cfg.CacheVersion)))

	frame(h, []byte("points"))
	frame(h, binary.BigEndian.AppendUint64(nil, uint64(len(points))))
	for _, p := range points {
		writePoint(h, p)
	}

	return model.CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// writePoint serializes one point as its assignments sorted by parameter
// name, each value JSON-encoded together with enough type context (quoting,
// brackets) to keep "10" and 10 distinct.
func writePoint(h hash.Hash, p designspace.Point) {
	assignments := append([]designspace.Assignment(nil), p.Assignments...)
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Name < assignments[j].Name
	})
	frame(h, binary.BigEndian.AppendUint64(nil, uint64(len(assignments))))
	for _, a := range assignments {
		frame(h, []byte(a.Name))
		buf, err := ctyjson.Marshal(a.Value, a.Value.Type())
		if err != nil {
			// Parsed values are always concrete scalars or tuples; a value
			// that cannot serialize is a programming-contract violation.
			panic(fmt.Sprintf("fingerprint: unserializable value for %q: %v", a.Name, err))
		}
		frame(h, buf)
	}
}

// frame writes a length-prefixed chunk so adjacent fields can never be
// confused no matter their content.
func frame(h hash.Hash, b []byte) {
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(len(b))))
	h.Write(b)
}
