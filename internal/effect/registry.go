// Copyright 2024 The Brokenfuse Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package effect

import (
	"encoding/json"
	"strings"

	"github.com/dranikpg/brokenfuse/internal/ftypes"
	"github.com/mitchellh/mapstructure"
)

// defaultErrno is the errno Flakey fires when the config omits one.
const defaultErrno = ftypes.EIO

// Create builds a DefinedEffect from a kind name and a JSON configuration
// blob, per spec §4.3: parse the object, extract the mandatory "op"
// field, then dispatch to the named kind's own schema for the rest.
func Create(kindName string, blob []byte) (*DefinedEffect, error) {
	var raw map[string]any
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, ftypes.EINVAL
	}

	opRaw, ok := raw["op"]
	if !ok {
		return nil, ftypes.EINVAL
	}
	opStr, ok := opRaw.(string)
	if !ok {
		return nil, ftypes.EINVAL
	}
	op, err := ftypes.ParseOpType(opStr)
	if err != nil {
		return nil, ftypes.EINVAL
	}
	delete(raw, "op")

	kind := Kind(strings.ToLower(kindName))
	eff, err := build(kind, raw)
	if err != nil {
		return nil, err
	}

	return &DefinedEffect{Name: string(kind), Op: op, Effect: eff}, nil
}

func build(kind Kind, fields map[string]any) (Effect, error) {
	switch kind {
	case KindDelay:
		var d Delay
		if err := decode(fields, &d); err != nil {
			return nil, ftypes.EINVAL
		}
		return &d, nil

	case KindFlakey:
		return buildFlakey(fields)

	case KindMaxSize:
		var m MaxSize
		if err := decode(fields, &m); err != nil {
			return nil, ftypes.EINVAL
		}
		return &m, nil

	case KindHeatMap:
		var h HeatMap
		if err := decode(fields, &h); err != nil {
			return nil, ftypes.EINVAL
		}
		return &h, nil

	case KindQuota:
		var q Quota
		if err := decode(fields, &q); err != nil {
			return nil, ftypes.EINVAL
		}
		return &q, nil

	default:
		return nil, ftypes.EINVAL
	}
}

func buildFlakey(fields map[string]any) (Effect, error) {
	f := &Flakey{Errno: defaultErrno}
	if raw, ok := fields["errno"]; ok {
		n, ok := raw.(float64)
		if !ok {
			return nil, ftypes.EINVAL
		}
		f.Errno = ftypes.Errno(int(n))
	}

	shapes := 0
	if always, ok := fields["always"]; ok {
		b, ok := always.(bool)
		if !ok {
			return nil, ftypes.EINVAL
		}
		f.cond = condAlways
		f.always = b
		shapes++
	}
	if probRaw, ok := fields["prob"]; ok {
		p, ok := probRaw.(float64)
		if !ok {
			return nil, ftypes.EINVAL
		}
		f.cond = condProb
		f.prob = float32(p)
		shapes++
	}
	_, hasAvail := fields["avail_ms"]
	_, hasUnavail := fields["unavail_ms"]
	if hasAvail || hasUnavail {
		if !hasAvail || !hasUnavail {
			return nil, ftypes.EINVAL
		}
		avail, ok1 := toUint64(fields["avail_ms"])
		unavail, ok2 := toUint64(fields["unavail_ms"])
		if !ok1 || !ok2 {
			return nil, ftypes.EINVAL
		}
		if avail+unavail == 0 {
			return nil, ftypes.EINVAL
		}
		f.cond = condInterval
		f.availMs = avail
		f.unavailMs = unavail
		shapes++
	}

	if shapes != 1 {
		return nil, ftypes.EINVAL
	}
	return f, nil
}

func toUint64(v any) (uint64, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0, false
	}
	return uint64(f), true
}

func decode(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}
