package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextStripsAllHTML(t *testing.T) {
	require.Equal(t, "Riverside Studio", Text("<b>Riverside</b> Studio"))
	require.Equal(t, "alert(1)", Text("<script>alert(1)</script>"))
}

func TestHTMLKeepsSafeFormatting(t *testing.T) {
	sanitized := HTML(`<p>Bright daylight studio.</p><script>steal()</script>`)

	require.Contains(t, sanitized, "<p>Bright daylight studio.</p>")
	require.NotContains(t, sanitized, "script")
}

func TestTextSlice(t *testing.T) {
	require.Nil(t, TextSlice(nil))
	require.Equal(t, []string{"studio", "gallery"}, TextSlice([]string{"<i>studio</i>", "gallery"}))
}
