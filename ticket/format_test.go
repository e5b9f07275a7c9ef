package ticket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatGolden(t *testing.T) {
	got := Format("Demo",
		[]string{"Mesa: 5", "Fecha: 14/10/2026 12:30"},
		[]string{"2x Pasta - 32.00", "1x Soda - 3.50"},
		[]string{"TOTAL: 35.50"})

	want := "================================\n" +
		"              Demo\n" +
		"Mesa: 5\n" +
		"Fecha: 14/10/2026 12:30\n" +
		"--------------------------------\n" +
		"2x Pasta - 32.00\n" +
		"1x Soda - 3.50\n" +
		"--------------------------------\n" +
		"TOTAL: 35.50\n" +
		"================================"
	assert.Equal(t, want, got)
}

func TestFormatBordersAndSeparators(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		headers []string
		body    []string
		footers []string
	}{
		{"empty", "", nil, nil, nil},
		{"no name", "", []string{"Mesa: 1"}, []string{"1x Cafe - 2.00"}, []string{"TOTAL: 2.00"}},
		{"long body", "La Esquina", nil, []string{strings.Repeat("x", 60)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines := strings.Split(Format(tc.title, tc.headers, tc.body, tc.footers), "\n")
			require.GreaterOrEqual(t, len(lines), 4)
			assert.Equal(t, strings.Repeat("=", 32), lines[0])
			assert.Equal(t, strings.Repeat("=", 32), lines[len(lines)-1])

			seps := 0
			for _, l := range lines {
				if l == strings.Repeat("-", 32) {
					seps++
				}
			}
			assert.Equal(t, 2, seps)
		})
	}
}

func TestFormatCentersName(t *testing.T) {
	for _, name := range []string{"A", "Demo", "Pollos Hermanos", strings.Repeat("n", 31)} {
		line := strings.Split(Format(name, nil, nil, nil), "\n")[1]
		pad := len(line) - len(strings.TrimLeft(line, " "))
		assert.Equal(t, (32-len(name))/2, pad, name)
		assert.Equal(t, name, strings.TrimLeft(line, " "))
		assert.LessOrEqual(t, len(line), 32)
	}
}

func TestFormatLongNameUnpadded(t *testing.T) {
	for _, name := range []string{strings.Repeat("n", 32), strings.Repeat("n", 40)} {
		line := strings.Split(Format(name, nil, nil, nil), "\n")[1]
		assert.Equal(t, name, line)
	}
}

func TestFormatOmitsEmptyName(t *testing.T) {
	lines := strings.Split(Format("", []string{"Mesa: 2"}, nil, nil), "\n")
	assert.Equal(t, "Mesa: 2", lines[1])
}

func TestFormatIdempotent(t *testing.T) {
	h, b, f := []string{"Mesa: 9"}, []string{"3x Te - 6.00"}, []string{"TOTAL: 6.00"}
	assert.Equal(t, Format("Cafe", h, b, f), Format("Cafe", h, b, f))
}
