package service

const (
	AC_DISCHARGE_WATTS_ADDRESS    uint16  = 69
	DEFAULT_DISCHARGE_CLAMP_WATTS float32 = 6000
)

type SanityRule interface {
	Apply(value float32) float32
}

// ReplaceAbove replaces any value strictly greater than Limit.
type ReplaceAbove struct {
	Limit       float32
	Replacement float32
}

func (r ReplaceAbove) Apply(value float32) float32 {
	if value > r.Limit {
		return r.Replacement
	}
	return value
}

// SanityRuleFunc adapts a plain function to a SanityRule.
type SanityRuleFunc func(value float32) float32

func (f SanityRuleFunc) Apply(value float32) float32 {
	return f(value)
}

type SanityFilter struct {
	rules map[uint16][]SanityRule
}

func NewSanityFilter() *SanityFilter {
	return &SanityFilter{
		rules: map[uint16][]SanityRule{},
	}
}

// DefaultSanityFilter drops the bogus discharge readings the inverter reports while in standby.
func DefaultSanityFilter(dischargeClampWatts float32) *SanityFilter {
	return NewSanityFilter().With(AC_DISCHARGE_WATTS_ADDRESS, ReplaceAbove{
		Limit:       dischargeClampWatts,
		Replacement: 0,
	})
}

func (f *SanityFilter) With(address uint16, rule SanityRule) *SanityFilter {
	f.rules[address] = append(f.rules[address], rule)
	return f
}

func (f *SanityFilter) Filter(address uint16, value float32) float32 {
	for _, rule := range f.rules[address] {
		value = rule.Apply(value)
	}
	return value
}

func (f *SanityFilter) Len() int {
	n := 0
	for _, rules := range f.rules {
		n += len(rules)
	}
	return n
}
