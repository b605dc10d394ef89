// Package numerals converts axis positions into display labels.
package numerals

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Converter names known to the registry.
const (
	Numeric    = "numeric"
	AlphaSmall = "alphaSmall"
	AlphaBig   = "alphaBig"
	Roman      = "roman"
)

// cacheLimit is the highest value kept in the per-converter label cache.
const cacheLimit = 100

// Converter turns an integer axis position into a label.
type Converter interface {
	// Name returns the registry name of the converter.
	Name() string
	// Convert returns the label for value. It never fails.
	Convert(value int) string
	// IsValid reports whether this is a real converter.
	IsValid() bool
}

type formatFunc func(magnitude uint) string

type converter struct {
	name   string
	format formatFunc
	cache  [cacheLimit + 1]string
}

func newConverter(name string, format formatFunc) *converter {
	c := &converter{name: name, format: format}
	for i := uint(0); i <= cacheLimit; i++ {
		c.cache[i] = format(i)
	}
	return c
}

func (c *converter) Name() string { return c.name }

func (c *converter) IsValid() bool { return true }

func (c *converter) Convert(value int) string {
	if value < 0 {
		// computed without negating value so math.MinInt does not overflow
		return "-" + c.convertMagnitude(uint(-(value+1))+1)
	}
	return c.convertMagnitude(uint(value))
}

func (c *converter) convertMagnitude(n uint) string {
	if n <= cacheLimit {
		return c.cache[n]
	}
	return c.format(n)
}

type invalidConverter struct{}

func (invalidConverter) Name() string { return "" }

func (invalidConverter) IsValid() bool { return false }

func (invalidConverter) Convert(int) string { return "" }

// Invalid is returned for unknown converter names.
var Invalid Converter = invalidConverter{}

var (
	registryOnce sync.Once
	registry     map[string]Converter
)

func loadRegistry() {
	registry = map[string]Converter{
		Numeric:    newConverter(Numeric, formatNumeric),
		AlphaSmall: newConverter(AlphaSmall, func(n uint) string { return formatAlpha(n, 'a') }),
		AlphaBig:   newConverter(AlphaBig, func(n uint) string { return formatAlpha(n, 'A') }),
		Roman:      newConverter(Roman, formatRoman),
	}
}

// Create returns the shared converter registered under name, or Invalid.
func Create(name string) Converter {
	registryOnce.Do(loadRegistry)
	if c, ok := registry[name]; ok {
		return c
	}
	return Invalid
}

// Names lists the registered converter names in sorted order.
func Names() []string {
	registryOnce.Do(loadRegistry)
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether name resolves to a real converter.
func IsKnown(name string) bool {
	return Create(name).IsValid()
}

func formatNumeric(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

// formatAlpha uses spreadsheet column lettering shifted to start at zero:
// 0 -> a, 25 -> z, 26 -> aa.
func formatAlpha(n uint, first byte) string {
	var buf []byte
	for {
		buf = append(buf, first+byte(n%26))
		n /= 26
		if n == 0 {
			break
		}
		n--
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

var romanSymbols = []struct {
	value  uint
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// formatRoman writes values of 4000 and above in parenthesised thousands,
// (IV)CD for 4400, so the label length stays bounded.
func formatRoman(n uint) string {
	if n == 0 {
		return "O"
	}
	var sb strings.Builder
	if n >= 4000 {
		sb.WriteString("(" + formatRoman(n/1000) + ")")
		n %= 1000
		if n == 0 {
			return sb.String()
		}
	}
	for _, rs := range romanSymbols {
		for n >= rs.value {
			sb.WriteString(rs.symbol)
			n -= rs.value
		}
	}
	return sb.String()
}
