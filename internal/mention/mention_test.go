package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecial(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"hello @all", []string{"@all"}},
		{"@here and @channel and @here", []string{"@here", "@channel"}},
		{"@ALL caps", []string{"@all"}},
		{"email me at x@all.com", nil},
		{"@allison is here", nil},
		{"`@all` in code", nil},
		{"```\n@channel\n```", nil},
		{"(@here)", []string{"@here"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Special(tt.text))
			assert.Equal(t, tt.want != nil, HasSpecial(tt.text))
		})
	}
}

func TestGroups(t *testing.T) {
	allowed := []string{"devs", "@Design-Team"}

	assert.Equal(t, []string{"@devs"}, Groups("ping @devs please", allowed))
	assert.Equal(t, []string{"@design-team", "@devs"}, Groups("@design-team @DEVS @devs", allowed))
	assert.Nil(t, Groups("@devops", allowed))
	assert.Nil(t, Groups("`@devs`", allowed))
	assert.Nil(t, Groups("@devs", nil))
}
