package core

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// setEngine keeps exact per-key sums. It is small enough to make every
// evaluator transition observable.
type setEngine struct{}

type keySet struct {
	size int
	mode Mode
	keys map[string]float64
}

func (setEngine) Defaults() Config {
	return Config{Size: 8, Sampling: 1, Mode: "Sum", Seed: DefaultSeed}
}

func (setEngine) Validate(config Config) error {
	if config.Size < 1 || config.Size > 64 {
		return errors.Newf("size %d out of range", config.Size)
	}
	if config.Mode != "Sum" && config.Mode != "Max" {
		return errors.Newf("unknown mode %q", config.Mode)
	}
	return nil
}

func (setEngine) Build(config Config) (*keySet, error) {
	return &keySet{size: config.Size, mode: config.Mode, keys: make(map[string]float64)}, nil
}

func (setEngine) add(set *keySet, key string, v float64) {
	current, ok := set.keys[key]
	if ok && set.mode == "Max" {
		if v > current {
			set.keys[key] = v
		}
		return
	}
	set.keys[key] = current + v
}

func (engine setEngine) Update(set *keySet, key []byte, values []float64) (*keySet, error) {
	v := 1.0
	if len(values) > 0 {
		v = values[0]
	}
	engine.add(set, string(key), v)
	return set, nil
}

func (engine setEngine) Merge(dst, src *keySet) (*keySet, error) {
	for k, v := range src.keys {
		engine.add(dst, k, v)
	}
	return dst, nil
}

func (setEngine) Serialize(set *keySet) ([]byte, error) {
	keys := make([]string, 0, len(set.keys))
	for k := range set.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString("set|")
	for _, k := range keys {
		sb.WriteString(strconv.Quote(k))
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(set.keys[k], 'g', -1, 64))
		sb.WriteByte(';')
	}
	return []byte(sb.String()), nil
}

func (engine setEngine) Deserialize(buf []byte, config Config) (*keySet, error) {
	s := string(buf)
	if !strings.HasPrefix(s, "set|") {
		return nil, errors.New("not a key set")
	}
	set, _ := engine.Build(config)
	for _, entry := range strings.Split(strings.TrimPrefix(s, "set|"), ";") {
		if entry == "" {
			continue
		}
		i := strings.LastIndexByte(entry, '=')
		if i < 0 {
			return nil, errors.Newf("bad entry %q", entry)
		}
		k, err := strconv.Unquote(entry[:i])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(entry[i+1:], 64)
		if err != nil {
			return nil, err
		}
		set.keys[k] = v
	}
	return set, nil
}

func (setEngine) Estimate(set *keySet) float64 {
	return float64(len(set.keys))
}

func (setEngine) RetainedCount(set *keySet) int {
	if len(set.keys) > set.size {
		return set.size
	}
	return len(set.keys)
}

var (
	setSignature = Signature{
		Name:         "set_sketch",
		Input:        DataInput,
		Values:       1,
		Params:       []Param{ParamSize, ParamSampling, ParamMode},
		ModeInRecord: true,
	}
	setUnionSignature = Signature{
		Name:   "set_union",
		Input:  SketchInput,
		Params: []Param{ParamSize},
	}
	setRawInputs = []Field{
		{Name: "key", Kind: KindString},
		{Name: "value", Kind: KindFloat64},
		{Name: "size", Kind: KindInt32},
		{Name: "sampling", Kind: KindFloat64},
		{Name: "mode", Kind: KindString},
	}
)
