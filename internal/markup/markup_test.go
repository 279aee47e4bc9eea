package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestColor(t *testing.T) {
	assert.Equal(t, "<color=#FF0000>danger</color>", Color("FF0000", "danger"))
	assert.Equal(t, "<color=#00FF00>hp: 42</color>", Colorf("00FF00", "hp: %d", 42))
}

func TestStrip(t *testing.T) {
	in := "\n> " + Color("FFFFFF", "log "+Color("00FFFF", "x")+" done")
	assert.Equal(t, "\n> log x done", Strip(in))
}

func TestToANSI_Nested(t *testing.T) {
	got := ToANSI(Color("FF0000", "a" + Color("0000FF", "b") + "c"))
	red := "\033[38;2;255;0;0m"
	blue := "\033[38;2;0;0;255m"
	assert.Equal(t, red+"a"+blue+"b"+Reset+red+"c"+Reset, got)
}

func TestToANSI_UnbalancedTags(t *testing.T) {
	assert.Equal(t, "plain", ToANSI("plain</color>"))
	assert.Equal(t, "\033[38;2;0;255;0mopen"+Reset, ToANSI("<color=#00FF00>open"))
}

func TestStripANSI(t *testing.T) {
	input := "\033[31mred\033[0m normal \033[1m\033[32mbold green\033[0m"
	assert.Equal(t, "red normal bold green", StripANSI(input))
	assert.Equal(t, "", StripANSI(""))
}

func TestRGB(t *testing.T) {
	r, g, b, err := RGB("#10A0FF")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x10, 0xA0, 0xFF}, []uint8{r, g, b})
	_, _, _, err = RGB("XYZ")
	assert.Error(t, err)
}

func TestGradient(t *testing.T) {
	assert.Equal(t, "00FF00", Gradient("00FF00", "FF0000", 0))
	assert.Equal(t, "FF0000", Gradient("00FF00", "FF0000", 1))
	assert.Equal(t, "FF0000", Gradient("00FF00", "FF0000", 7))
	assert.Equal(t, "808000", Gradient("00FF00", "FF0000", 0.5))
}

// Property: rendering then stripping ANSI equals stripping the markup.
func TestPropertyToANSIMatchesStrip(t *testing.T) {
	colors := []string{"FF0000", "00FF00", "0000FF", "FFFFFF", "1E90FF"}
	rapid.Check(t, func(t *rapid.T) {
		outer := rapid.StringMatching(`[a-zA-Z0-9 ]{0,20}`).Draw(t, "outer")
		inner := rapid.StringMatching(`[a-zA-Z0-9 ]{0,20}`).Draw(t, "inner")
		c1 := colors[rapid.IntRange(0, len(colors)-1).Draw(t, "c1")]
		c2 := colors[rapid.IntRange(0, len(colors)-1).Draw(t, "c2")]
		s := Color(c1, outer+Color(c2, inner)) + outer
		assert.Equal(t, Strip(s), StripANSI(ToANSI(s)))
	})
}
