package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanon_Text(t *testing.T) {
	out, _, err := execute(t, "canon", `Когда я нажимаю кнопку с именем "Записать"`)
	require.NoError(t, err)

	assert.Contains(t, out, `canonical: я нажимаю кнопку с именем "{}"`)
	assert.Contains(t, out, "action:    нажимаю")
	assert.Contains(t, out, "params:    Записать")
}

func TestCanon_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "canon",
		`И я нажимаю кнопку с именем "Записать"`,
		"И я жду 5 секунд",
	)
	require.NoError(t, err)

	resp := decodeResponse[[]CanonEntry](t, out)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, `я нажимаю кнопку с именем "{}"`, resp.Data[0].Canonical)
	assert.Equal(t, "нажимаю", resp.Data[0].Features.Action)
	assert.Equal(t, []string{"Записать"}, resp.Data[0].Features.Params)
	assert.Equal(t, "я жду # секунд", resp.Data[1].Canonical)
}

func TestCanon_RequiresStep(t *testing.T) {
	_, _, err := execute(t, "canon")
	require.Error(t, err)
}
