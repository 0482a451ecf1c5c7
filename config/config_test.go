package config_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/schema/rule"
)

func intRange(min, max int64) rule.Params {
	return rule.Int(min, max).Descriptor().Params
}

func TestMerger(t *testing.T) {
	intType := reflect.TypeFor[int]()
	req := config.Request{
		Field:    "age",
		Type:     intType,
		Kind:     rule.KindBasic,
		Declared: intRange(1, 10),
		Top:      true,
	}

	t.Run("declared params overlay defaults", func(t *testing.T) {
		var m *config.Merger
		p := m.Merge(req)
		assert.Equal(t, int64(1), *p.IntMin)
		assert.Equal(t, rule.DefaultMaxLen, *p.MaxLen)
		assert.Equal(t, fixgen.RandomValue, p.RemarkOr(fixgen.NotDefined))
	})

	t.Run("layer precedence", func(t *testing.T) {
		g := &config.Global{
			Kinds: map[string]rule.Params{"basic": intRange(2, 20)},
			Types: map[string]rule.Params{"int": intRange(3, 30)},
		}
		m := &config.Merger{Global: g}
		assert.Equal(t, int64(3), *m.Merge(req).IntMin, "global type beats global kind")

		m.Types = map[reflect.Type]rule.Params{intType: intRange(4, 40)}
		assert.Equal(t, int64(4), *m.Merge(req).IntMin, "engine type beats global")

		m.Fields = map[string]rule.Params{"age": intRange(5, 50)}
		assert.Equal(t, int64(5), *m.Merge(req).IntMin, "field beats type")
		assert.Equal(t, int64(5), *m.Merge(config.Request{Field: "age", Type: intType, Kind: rule.KindBasic}).IntMin)
	})

	t.Run("layers only override what they set", func(t *testing.T) {
		max := int64(99)
		m := &config.Merger{Fields: map[string]rule.Params{"age": {IntMax: &max}}}
		p := m.Merge(req)
		assert.Equal(t, int64(1), *p.IntMin)
		assert.Equal(t, int64(99), *p.IntMax)
	})

	t.Run("remark precedence", func(t *testing.T) {
		declared := req
		declared.Declared = intRange(1, 10).WithRemark(fixgen.MinValue)
		m := &config.Merger{Global: &config.Global{Remark: fixgen.NullValue}}
		assert.Equal(t, fixgen.NullValue, m.Merge(declared).RemarkOr(fixgen.NotDefined))

		m.GlobalRemark = fixgen.MaxValue
		assert.Equal(t, fixgen.MaxValue, m.Merge(declared).RemarkOr(fixgen.NotDefined))

		m.FieldRemarks = map[string]fixgen.Remark{"age": fixgen.RandomValue}
		assert.Equal(t, fixgen.RandomValue, m.Merge(declared).RemarkOr(fixgen.NotDefined))

		elem := declared
		elem.Top = false
		assert.Equal(t, fixgen.MaxValue, m.Merge(elem).RemarkOr(fixgen.NotDefined),
			"field remark only applies to the top-level generator")
	})

	t.Run("declared remarks are only a baseline", func(t *testing.T) {
		descs, err := rule.ParseTag("int,min=1,max=10,remark=min")
		require.NoError(t, err)
		g, err := config.Parse([]byte("remark: random\n"))
		require.NoError(t, err)
		tagged := req
		tagged.Declared = descs[0].EffectiveParams()

		var bare *config.Merger
		assert.Equal(t, fixgen.MinValue, bare.Merge(tagged).RemarkOr(fixgen.NotDefined))
		m := &config.Merger{Global: g}
		assert.Equal(t, fixgen.RandomValue, m.Merge(tagged).RemarkOr(fixgen.NotDefined))
	})

	t.Run("pointer types fall back to the element type", func(t *testing.T) {
		m := &config.Merger{Types: map[reflect.Type]rule.Params{intType: intRange(7, 8)}}
		ptrReq := req
		ptrReq.Type = reflect.TypeFor[*int]()
		ptrReq.Declared = rule.Params{}
		assert.Equal(t, int64(7), *m.Merge(ptrReq).IntMin)
	})

	t.Run("Scoped strips the field prefix", func(t *testing.T) {
		m := &config.Merger{
			Types:        map[reflect.Type]rule.Params{intType: intRange(7, 8)},
			Fields:       map[string]rule.Params{"address.zip": intRange(1, 1), "zip": intRange(2, 2)},
			GlobalRemark: fixgen.MinValue,
			FieldRemarks: map[string]fixgen.Remark{"address.zip": fixgen.MaxValue, "address.": fixgen.NullValue},
		}
		s := m.Scoped("address")
		assert.Equal(t, map[string]rule.Params{"zip": intRange(1, 1)}, s.Fields)
		assert.Equal(t, map[string]fixgen.Remark{"zip": fixgen.MaxValue}, s.FieldRemarks)
		assert.Equal(t, fixgen.MinValue, s.GlobalRemark)
		assert.Len(t, s.Types, 1)

		var nilMerger *config.Merger
		assert.Nil(t, nilMerger.Scoped("x"))
	})

	t.Run("Clone copies maps", func(t *testing.T) {
		m := &config.Merger{Fields: map[string]rule.Params{"a": {}}}
		c := m.Clone()
		require.NotNil(t, c)
		c.Fields["b"] = rule.Params{}
		assert.Len(t, m.Fields, 1)

		var nilMerger *config.Merger
		assert.NotNil(t, nilMerger.Clone())
	})

	t.Run("Layers lists every applicable layer", func(t *testing.T) {
		m := &config.Merger{
			Global:       &config.Global{Kinds: map[string]rule.Params{"basic": {}}},
			Types:        map[reflect.Type]rule.Params{intType: {}},
			Fields:       map[string]rule.Params{"age": {}},
			GlobalRemark: fixgen.MinValue,
			FieldRemarks: map[string]fixgen.Remark{"age": fixgen.MaxValue},
		}
		assert.Len(t, m.Layers(req), 7)
	})
}
