package scoreboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

func TestRenderOrdersByScoreThenIDDescending(t *testing.T) {
	players := []domain.PlayerRecord{
		{ID: 1, Name: "A", Color: "#000000", Score: 100},
		{ID: 2, Name: "B", Color: "#111111", Score: 300},
		{ID: 3, Name: "C", Color: "#222222", Score: 300},
		{ID: 4, Name: "D", Color: "#333333", Score: 0},
	}
	text := Render(players)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	// Expected order: C(300,3), B(300,2), A(100,1), D(0,4) — score desc, ties
	// broken by PlayerId descending.
	assert.Equal(t, "C", lines[0])
	assert.Equal(t, "#222222", lines[1])
	assert.Equal(t, "300", lines[2])

	assert.Equal(t, "B", lines[3])
	assert.Equal(t, "300", lines[5])

	assert.Equal(t, "A", lines[6])
	assert.Equal(t, "100", lines[8])

	assert.Equal(t, "D", lines[9])
	assert.Equal(t, "0", lines[11])
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}
