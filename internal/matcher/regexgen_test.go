package matcher

import (
	"testing"

	"github.com/Veraticus/sunwise/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRegexFromModel(t *testing.T) {
	tests := []struct {
		token string
		want  string
		match []string
		miss  []string
	}{
		{
			token: "JKM440N 54HL4",
			want:  `\bJKM440N[-/\s]?54HL4\b`,
			match: []string{"JKM440N 54HL4", "JKM440N-54HL4", "jkm440n/54hl4", "JKM440N54HL4"},
			miss:  []string{"JKM440N--54HL4", "XJKM440N 54HL4"},
		},
		{
			token: "sg5.0rs",
			want:  `\bSG5\.0RS\b`,
			match: []string{"SG5.0RS"},
			miss:  []string{"SG5X0RS"},
		},
		{
			token: "Q.PEAK DUO+",
			want:  `\bQ\.PEAK[-/\s]?DUO\+`,
			match: []string{"Q.PEAK DUO+", "Q.PEAK-DUO+ ML"},
		},
		{token: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := GenerateRegexFromModel(tt.token)
			assert.Equal(t, tt.want, got)
			if got == "" {
				return
			}
			re, err := common.CompileFold(got)
			require.NoError(t, err)
			for _, s := range tt.match {
				assert.True(t, re.MatchString(s), "should match %q", s)
			}
			for _, s := range tt.miss {
				assert.False(t, re.MatchString(s), "should not match %q", s)
			}
		})
	}
}

func TestAliasPattern(t *testing.T) {
	assert.Equal(t, `\bPRIMO[-/\s]?5\.0[-/\s]?1\b`, aliasPattern("Primo 5.0-1"))
	assert.Equal(t, `\bPOWERWALL[-/\s]?2\b`, aliasPattern("powerwall / 2"))
	assert.Equal(t, "", aliasPattern(" - / "))
}

func TestFuzzAliases(t *testing.T) {
	assert.Equal(t, []string{"PW-1O", "PW-I0", "PW 10", "PW10"}, FuzzAliases("pw-10"))

	got := FuzzAliases("JKM440N 54HL4")
	assert.Equal(t, []string{"JKM44ON 54HL4", "JKM440N-54HL4", "JKM440N54HL4"}, got)
	assert.NotContains(t, got, "JKM440N 54HL4")
	assert.Equal(t, got, FuzzAliases("JKM440N 54HL4"), "deterministic")

	seen := map[string]bool{}
	for _, v := range FuzzAliases("IO-10/OI") {
		assert.False(t, seen[v], "duplicate %q", v)
		seen[v] = true
	}

	assert.Nil(t, FuzzAliases(""))
	assert.Empty(t, FuzzAliases("ABC"))
}
